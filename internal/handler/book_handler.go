package handler

import (
	"net/http"
	"strconv"

	"bookstore/internal/domain/model"
	"bookstore/internal/middleware"
	"bookstore/internal/usecase"

	"github.com/labstack/echo/v4"
)

// /books・/reviewsのHTTP。カタログAPIへの素通しに入力チェックを足すだけ。
type BookHandler struct {
	uc *usecase.CatalogUsecase
}

// DI
func NewBookHandler(uc *usecase.CatalogUsecase) *BookHandler {
	return &BookHandler{uc: uc}
}

type ReviewCreateRequest struct {
	BookID  int64  `json:"book_id"`
	Title   string `json:"title"`
	Content string `json:"content"`
	Rating  int    `json:"rating"`
}

// /books, /books/{id}, /books/{id}/reviews, /reviews を登録
func (h *BookHandler) RegisterRoutes(e *echo.Echo) {
	e.GET("/books", h.list)
	e.GET("/books/:id", h.detail)
	e.GET("/books/:id/reviews", h.listReviews)
	e.POST("/reviews", h.createReview)
}

func (h *BookHandler) list(c echo.Context) error {
	in := usecase.ListBooksInput{
		FilterBy:   c.QueryParam("filter_by"),
		AuthorID:   queryInt64(c, "author_id"),
		CategoryID: queryInt64(c, "category_id"),
		Star:       queryFloat(c, "star"),
		Limit:      queryInt(c, "limit"),
		Offset:     queryInt(c, "offset"),
	}

	books, err := h.uc.ListBooks(c.Request().Context(), in)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, books)
}

func (h *BookHandler) detail(c echo.Context) error {
	book, err := h.uc.GetBook(c.Request().Context(), c.Param("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, book)
}

func (h *BookHandler) listReviews(c echo.Context) error {
	in := usecase.ListReviewsInput{
		SortBy:     c.QueryParam("sort_by"),
		Limit:      queryInt(c, "limit"),
		Offset:     queryInt(c, "offset"),
		RatingStar: queryInt(c, "rating_star"),
	}

	page, err := h.uc.ListReviews(c.Request().Context(), c.Param("id"), in)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, page)
}

func (h *BookHandler) createReview(c echo.Context) error {
	var req ReviewCreateRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}

	token := middleware.TokenFromContext(c)
	err := h.uc.CreateReview(c.Request().Context(), token, model.ReviewCreate{
		BookID:  req.BookID,
		Title:   req.Title,
		Content: req.Content,
		Rating:  req.Rating,
	})
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusCreated, SuccessResponse{Message: "review created"})
}

func queryInt(c echo.Context, name string) int {
	v, err := strconv.Atoi(c.QueryParam(name))
	if err != nil {
		return 0
	}
	return v
}

func queryInt64(c echo.Context, name string) int64 {
	v, err := strconv.ParseInt(c.QueryParam(name), 10, 64)
	if err != nil {
		return 0
	}
	return v
}

func queryFloat(c echo.Context, name string) float64 {
	v, err := strconv.ParseFloat(c.QueryParam(name), 64)
	if err != nil {
		return 0
	}
	return v
}
