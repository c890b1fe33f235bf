package repository

import (
	"context"
	"regexp"
	"testing"

	"inkwell/internal/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPostRepository_Create(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewPostRepository(db)

	post := &models.Post{AuthorID: 1, Title: "Test Post", Content: "Content"}

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO "posts"`)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(1))
	mock.ExpectCommit()

	require.NoError(t, repo.Create(context.Background(), post))
	assert.Equal(t, uint(1), post.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostRepository_Search_EscapesWildcards(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewPostRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta(`WHERE (LOWER(posts.title) LIKE $1 ESCAPE '\' OR LOWER(posts.content) LIKE $2 ESCAPE '\') ORDER BY posts.created_at DESC, posts.id DESC`)).
		WithArgs(`%50\%\_off%`, `%50\%\_off%`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	posts, err := repo.Search(context.Background(), "50%_OFF")
	require.NoError(t, err)
	assert.Empty(t, posts)
	assert.NotNil(t, posts)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostRepository_GetByID_SelectsAggregates(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewPostRepository(db)

	mock.ExpectQuery(`SELECT posts\.\*, users\.username AS author_username, .*AS like_count, .*AS comment_count FROM "posts" JOIN users ON users\.id = posts\.author_id WHERE posts\.id = \$1`).
		WithArgs(7, 1).
		WillReturnRows(sqlmock.NewRows([]string{"id", "author_id", "title", "author_username", "like_count", "comment_count"}).
			AddRow(7, 3, "Hello", "alice", 2, 5))
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT post_tags.post_id, post_tags.tag_id, tags.name FROM "post_tags" JOIN tags ON tags.id = post_tags.tag_id WHERE post_tags.post_id IN ($1) ORDER BY tags.name ASC`)).
		WithArgs(7).
		WillReturnRows(sqlmock.NewRows([]string{"post_id", "tag_id", "name"}).AddRow(7, 1, "go"))

	post, err := repo.GetByID(context.Background(), 7)
	require.NoError(t, err)
	assert.Equal(t, "alice", post.AuthorUsername)
	assert.Equal(t, 2, post.LikeCount)
	assert.Equal(t, 5, post.CommentCount)
	assert.Equal(t, []models.Tag{{ID: 1, Name: "go"}}, post.Tags)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestContainsPattern(t *testing.T) {
	tests := map[string]string{
		"abc":     "%abc%",
		"ABC":     "%abc%",
		"100%":    `%100\%%`,
		"a_b":     `%a\_b%`,
		`back\sl`: `%back\\sl%`,
	}
	for in, want := range tests {
		assert.Equal(t, want, containsPattern(in), in)
	}
}
