package server

import "github.com/gofiber/fiber/v2"

// GetTags handles GET /api/tags
// @Summary List every tag with its post count
// @Tags tags
// @Produce json
// @Success 200 {array} models.TagCount
// @Router /tags [get]
func (s *Server) GetTags(c *fiber.Ctx) error {
	tags, err := s.tagService.ListTags(c.UserContext())
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(tags)
}

// GetActiveTags handles GET /api/tags/active
// @Summary List tags used by at least one post
// @Tags tags
// @Produce json
// @Success 200 {array} models.TagCount
// @Router /tags/active [get]
func (s *Server) GetActiveTags(c *fiber.Ctx) error {
	tags, err := s.tagService.ActiveTags(c.UserContext())
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(tags)
}

// GetTagPosts handles GET /api/tags/:id/posts
// @Summary Posts carrying a tag
// @Tags tags
// @Produce json
// @Param id path int true "Tag ID"
// @Success 200 {object} object{tag=models.Tag,posts=[]models.Post}
// @Failure 404 {object} models.ErrorResponse
// @Router /tags/{id}/posts [get]
func (s *Server) GetTagPosts(c *fiber.Ctx) error {
	tagID, err := parseID(c, "id")
	if err != nil {
		return nil
	}

	tag, posts, err := s.tagService.PostsForTag(c.UserContext(), tagID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{
		"tag":   tag,
		"posts": posts,
	})
}
