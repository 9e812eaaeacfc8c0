package api

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/pageza/homefoods/backend/internal/importer"
	"github.com/pageza/homefoods/backend/internal/model"
	"github.com/pageza/homefoods/backend/internal/query"
	"github.com/pageza/homefoods/backend/internal/schema"
	"github.com/pageza/homefoods/backend/internal/service"
)

// FoodHandler serves the menu.
type FoodHandler struct {
	svc    *service.FoodService
	logger *slog.Logger
}

func NewFoodHandler(svc *service.FoodService, logger *slog.Logger) *FoodHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &FoodHandler{svc: svc, logger: logger}
}

// RegisterRoutes mounts the food routes on router. The write handlers run
// after every middleware in write.
func (h *FoodHandler) RegisterRoutes(router *gin.RouterGroup, write ...gin.HandlerFunc) {
	guarded := func(handler gin.HandlerFunc) []gin.HandlerFunc {
		return append(append([]gin.HandlerFunc{}, write...), handler)
	}

	foods := router.Group("/foods")
	{
		foods.GET("", h.ListFoods)
		foods.GET("/count", h.CountFoods)
		foods.GET("/:id", h.GetFood)
		foods.POST("", guarded(h.CreateFood)...)
		foods.POST("/import", guarded(h.ImportFoods)...)
		foods.PUT("/:id", guarded(h.UpdateFood)...)
		foods.PATCH("/:id", guarded(h.SetFood)...)
		foods.DELETE("/:id", guarded(h.DeleteFood)...)
	}
}

func (h *FoodHandler) CreateFood(c *gin.Context) {
	var item model.FoodItem
	if err := c.ShouldBindJSON(&item); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	item.ID = ""

	created, err := h.svc.Create(c.Request.Context(), &item)
	if err != nil {
		h.fail(c, "failed to create food item", err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"food": created})
}

func (h *FoodHandler) GetFood(c *gin.Context) {
	item, err := h.svc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.fail(c, "failed to fetch food item", err)
		return
	}
	if item == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "food item not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"food": item})
}

// ListFoods accepts filter (a JSON filter document), select, sort, skip and
// limit query parameters.
func (h *FoodHandler) ListFoods(c *gin.Context) {
	q, err := parseQuery(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	items, err := h.svc.Find(c.Request.Context(), q)
	if err != nil {
		h.fail(c, "failed to fetch food items", err)
		return
	}
	if items == nil {
		items = []*model.FoodItem{}
	}
	c.JSON(http.StatusOK, gin.H{"foods": items, "count": len(items)})
}

func (h *FoodHandler) CountFoods(c *gin.Context) {
	f, err := query.ParseFilter([]byte(c.Query("filter")))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	n, err := h.svc.Count(c.Request.Context(), f)
	if err != nil {
		h.fail(c, "failed to count food items", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"count": n})
}

// UpdateFood loads the item, applies the body and saves the whole record.
func (h *FoodHandler) UpdateFood(c *gin.Context) {
	var patch model.FoodItemPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	item, err := h.svc.Update(c.Request.Context(), c.Param("id"), patch)
	if err != nil {
		h.fail(c, "failed to update food item", err)
		return
	}
	if item == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "food item not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"food": item})
}

// SetFood writes the body's fields in one atomic step. With new=true the
// response holds the updated record, otherwise the record before the change.
func (h *FoodHandler) SetFood(c *gin.Context) {
	var patch model.FoodItemPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	returnNew, err := strconv.ParseBool(c.DefaultQuery("new", "false"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "new must be true or false"})
		return
	}

	item, err := h.svc.Set(c.Request.Context(), c.Param("id"), patch, service.SetOptions{ReturnNew: returnNew, RunValidators: true})
	if err != nil {
		h.fail(c, "failed to update food item", err)
		return
	}
	if item == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "food item not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"food": item})
}

// DeleteFood answers 200 even when nothing was removed; food is null then.
func (h *FoodHandler) DeleteFood(c *gin.Context) {
	item, err := h.svc.Delete(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.fail(c, "failed to delete food item", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"food": item})
}

// ImportFoods reads the multipart "file" field. The format follows the
// file name's extension.
func (h *FoodHandler) ImportFoods(c *gin.Context) {
	header, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "file is required"})
		return
	}
	format, err := importer.FormatFromName(header.Filename)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	file, err := header.Open()
	if err != nil {
		h.fail(c, "failed to read upload", err)
		return
	}
	defer file.Close()

	items, err := importer.Decode(file, format)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	report, err := h.svc.Import(c.Request.Context(), items)
	if err != nil {
		h.fail(c, "failed to import food items", err)
		return
	}
	h.logger.Info("menu imported", "file", header.Filename, "inserted", len(report.Inserted), "rejected", len(report.Failures))
	c.JSON(http.StatusOK, report)
}

func parseQuery(c *gin.Context) (*query.Query, error) {
	q := query.New()
	f, err := query.ParseFilter([]byte(c.Query("filter")))
	if err != nil {
		return nil, err
	}
	if f != nil {
		q.Where(f)
	}
	q.Select(c.Query("select")).SortBy(c.Query("sort"))

	if v := c.Query("skip"); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return nil, errors.New("skip must be an integer")
		}
		q.SkipN(n)
	}
	if v := c.Query("limit"); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return nil, errors.New("limit must be an integer")
		}
		q.LimitN(n)
	}
	return q, nil
}

// fail maps service errors onto responses. Validation and query errors are
// the client's; anything else is logged and reported as msg.
func (h *FoodHandler) fail(c *gin.Context, msg string, err error) {
	if verr, ok := schema.AsValidationError(err); ok {
		for _, fe := range verr.Errors {
			h.logger.Info("validation failed", "path", fe.Path, "message", fe.Message)
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": verr.Error(), "errors": verr.Messages()})
		return
	}
	if errors.Is(err, query.ErrUnknownField) || errors.Is(err, query.ErrInvalidFilter) {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	_ = c.Error(err)
	c.JSON(http.StatusInternalServerError, gin.H{"error": msg})
}
