package httpapi

import (
	"errors"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/calvinalkan/diary/internal/diary"
	"github.com/calvinalkan/diary/internal/theme"
)

// Client-facing error messages.
const (
	msgInvalidKey   = "Invalid dateKey. Expected yyyyMMdd."
	msgInvalidJSON  = "Invalid JSON body."
	msgInvalidTitle = "Invalid title."
	msgInvalidBody  = "Invalid content."
	msgTitleMissing = "Title is required."
)

type errorResponse struct {
	Error string `json:"error"`
}

// entryJSON is an entry as sent to clients, with its display colours.
type entryJSON struct {
	diary.Entry
	Theme theme.Theme `json:"theme"`
}

func toJSON(e diary.Entry) entryJSON {
	return entryJSON{Entry: e, Theme: theme.ForKey(e.Key)}
}

type listResponse struct {
	Entries []entryJSON `json:"entries"`
}

type entryResponse struct {
	Entry *entryJSON `json:"entry"`
}

type deleteResponse struct {
	Deleted bool `json:"deleted"`
}

// putRequest uses pointers so a missing field can be told apart from "".
type putRequest struct {
	DateKey string  `json:"dateKey" validate:"required,datekey"`
	Title   *string `json:"title" validate:"required"`
	Content *string `json:"content" validate:"required"`
}

type diaryHandler struct {
	store Store
	log   *zap.Logger
}

// get lists all entries, or returns one when ?dateKey= is given.
func (h *diaryHandler) get(c echo.Context) error {
	key := c.QueryParam("dateKey")
	ctx := c.Request().Context()

	if key == "" {
		entries, err := h.store.List(ctx)
		if err != nil {
			return err
		}

		out := listResponse{Entries: make([]entryJSON, 0, len(entries))}
		for _, e := range entries {
			out.Entries = append(out.Entries, toJSON(e))
		}

		return c.JSON(http.StatusOK, out)
	}

	if !diary.ValidKey(key) {
		return echo.NewHTTPError(http.StatusBadRequest, msgInvalidKey)
	}

	entry, found, err := h.store.Get(ctx, key)
	if err != nil {
		return err
	}

	var out entryResponse
	if found {
		j := toJSON(entry)
		out.Entry = &j
	}

	return c.JSON(http.StatusOK, out)
}

func (h *diaryHandler) put(c echo.Context) error {
	var req putRequest

	// The body is JSON whatever the Content-Type says.
	err := c.Echo().JSONSerializer.Deserialize(c, &req)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, msgInvalidJSON)
	}

	err = c.Validate(&req)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, validationMessage(err))
	}

	title := diary.ClampTitle(*req.Title)
	if title == "" {
		return echo.NewHTTPError(http.StatusBadRequest, msgTitleMissing)
	}

	entry, err := h.store.Upsert(c.Request().Context(), req.DateKey, title, diary.ClampBody(*req.Content))
	if err != nil {
		return err
	}

	h.log.Debug("entry saved", zap.String("key", entry.Key))

	j := toJSON(entry)

	return c.JSON(http.StatusOK, entryResponse{Entry: &j})
}

func (h *diaryHandler) delete(c echo.Context) error {
	key := c.QueryParam("dateKey")
	if !diary.ValidKey(key) {
		return echo.NewHTTPError(http.StatusBadRequest, msgInvalidKey)
	}

	deleted, err := h.store.Delete(c.Request().Context(), key)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, deleteResponse{Deleted: deleted})
}

// validationMessage maps the first failing field of a putRequest to its
// client message.
func validationMessage(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return msgInvalidJSON
	}

	switch verrs[0].Field() {
	case "Title":
		return msgInvalidTitle
	case "Content":
		return msgInvalidBody
	default:
		return msgInvalidKey
	}
}
