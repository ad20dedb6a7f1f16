package portfolio

import (
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/SohailGidwani/next-portfolio-sub000/markdown"
	"github.com/SohailGidwani/next-portfolio-sub000/views"
)

// handleListPosts serves GET /posts. With ?slug= it returns the single full
// post instead of a listing.
func (a *App) handleListPosts(c echo.Context) error {
	ctx := c.Request().Context()
	if slug := c.QueryParam("slug"); slug != "" {
		post, err := a.Cache.GetPost(ctx, slug)
		if err != nil {
			return err
		}
		return c.JSON(http.StatusOK, post)
	}
	posts, err := a.Cache.ListPosts(ctx, parseLimit(c.QueryParam("limit")))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, posts)
}

func (a *App) handleCreatePost(c echo.Context) error {
	var in CreatePostInput
	if err := c.Bind(&in); err != nil {
		return validationError("Invalid request body")
	}
	// Text is stored as given and escaped when rendered.
	if markupOnly(in.Title) {
		return validationError("Title is required")
	}

	post, err := a.Store.CreatePost(c.Request().Context(), in)
	if err != nil {
		return err
	}
	a.Cache.Invalidate()
	c.Logger().Infof("created post %d (%s)", post.ID, post.Slug)
	return c.JSON(http.StatusCreated, post)
}

func (a *App) handleDeletePost(c echo.Context) error {
	id, ok := parseID(c.Param("id"))
	if !ok {
		return validationError("Invalid id")
	}
	if err := a.Store.DeletePost(c.Request().Context(), id); err != nil {
		return err
	}
	a.Cache.Invalidate()
	return c.JSON(http.StatusOK, map[string]bool{"ok": true})
}

// handleBlogPage renders a post as a standalone HTML page.
func (a *App) handleBlogPage(c echo.Context) error {
	post, err := a.Cache.GetPost(c.Request().Context(), c.Param("slug"))
	if err != nil {
		if code, _ := errorStatus(err); code == http.StatusNotFound {
			return RenderStatus(c, http.StatusNotFound, views.NotFoundPage(a.site()))
		}
		return err
	}
	return Render(c, views.PostPage(a.site(), postView(post)))
}

func (a *App) site() views.Site {
	return views.Site{
		Name:        a.Config.Name,
		URL:         a.Config.URL,
		Description: a.Config.Description,
		Author:      a.Config.Author,
	}
}

// postView renders the markdown body and runs it through the UGC policy.
func postView(post BlogPost) views.Post {
	v := views.Post{
		Title:     post.Title,
		Slug:      post.Slug,
		CreatedAt: post.CreatedAt,
	}
	if post.Excerpt != nil {
		v.Excerpt = *post.Excerpt
	}
	if post.CoverImageURL != nil {
		v.CoverURL = *post.CoverImageURL
	}
	if post.Content != nil {
		v.Body = sanitizeHTML(markdown.ToHTML(*post.Content))
	}
	return v
}

func (a *App) handleHealth(c echo.Context) error {
	if err := a.Store.Ping(c.Request().Context()); err != nil {
		c.Logger().Errorf("health: %v", err)
		return c.JSON(http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
	}
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

// handleRobots generates robots.txt from the site URL.
func (a *App) handleRobots(c echo.Context) error {
	body := fmt.Sprintf("User-agent: *\nAllow: /\nDisallow: /admin/\n\nSitemap: %s/sitemap.xml\n", a.Config.URL)
	return c.String(http.StatusOK, body)
}
