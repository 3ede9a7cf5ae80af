package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"

	"clinicore/internal/caching"
	"clinicore/internal/common"

	"github.com/labstack/echo/v4"
)

// FeedHandlers streams clinic events to the browser as server-sent events.
type FeedHandlers struct {
	feed *caching.Feed
}

func NewFeedHandlers(feed *caching.Feed) *FeedHandlers {
	return &FeedHandlers{feed: feed}
}

// Stream subscribes the caller to their clinic's event feed. The
// subscription lives until the client disconnects.
func (h *FeedHandlers) Stream(c echo.Context) error {
	ctx := c.Request().Context()

	clinicID, ok := common.GetClinicIDFromContext(ctx)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "Missing clinic context")
	}

	sub, err := h.feed.Subscribe(ctx, clinicID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Could not subscribe to the event feed")
	}
	defer sub.Close()

	resp := c.Response()
	resp.Header().Set(echo.HeaderContentType, "text/event-stream")
	resp.Header().Set("Cache-Control", "no-cache")
	resp.Header().Set("Connection", "keep-alive")
	resp.WriteHeader(http.StatusOK)
	resp.Flush()

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, open := <-sub.C:
			if !open {
				return nil
			}
			payload, err := json.Marshal(event)
			if err != nil {
				continue
			}
			if _, err := fmt.Fprintf(resp, "event: %s\ndata: %s\n\n", event.Kind, payload); err != nil {
				return nil
			}
			resp.Flush()
		}
	}
}
