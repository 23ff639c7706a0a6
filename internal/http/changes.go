package http

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/mrlokans/symptomchecker/internal/notify"
	"github.com/mrlokans/symptomchecker/internal/router"
)

// ChangeObserver is the observer registration surface of the provider.
// *provider.Provider implements it.
type ChangeObserver interface {
	RegisterObserver(path string, observer notify.Observer) (notify.ObserverID, error)
	UnregisterObserver(id notify.ObserverID) bool
	Path(m router.Match) (string, error)
}

// changeBacklog bounds the events queued for one slow client. Changes beyond
// it are dropped for that client only.
const changeBacklog = 64

// ChangeEvent is the data of one server-sent event. The event name is the
// operation (insert, update, delete).
type ChangeEvent struct {
	URI  string `json:"uri"`
	Rows int64  `json:"rows"`
}

// ChangesController streams change notifications for /changes/<segment>[/<id>]
// as server-sent events until the client goes away.
type ChangesController struct {
	provider  ChangeObserver
	authority string
	log       zerolog.Logger
}

func NewChangesController(p ChangeObserver, authority string, log zerolog.Logger) *ChangesController {
	return &ChangesController{
		provider:  p,
		authority: authority,
		log:       log,
	}
}

func (cc *ChangesController) Stream(c *gin.Context) {
	path := cc.authority + c.Param("path")

	events := make(chan notify.Change, changeBacklog)
	id, err := cc.provider.RegisterObserver(path, notify.ObserverFunc(func(ch notify.Change) {
		select {
		case events <- ch:
		default:
			cc.log.Warn().Str("uri", path).Str("op", string(ch.Op)).Msg("Dropped change for slow client")
		}
	}))
	if err != nil {
		respondProviderError(c, cc.log, err, "register observer")
		return
	}
	defer cc.provider.UnregisterObserver(id)

	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("Content-Type", "text/event-stream")
	c.Status(http.StatusOK)
	c.Writer.Flush()

	done := c.Request.Context().Done()
	c.Stream(func(w io.Writer) bool {
		select {
		case <-done:
			return false
		case ch := <-events:
			uri, err := cc.provider.Path(ch.Resource)
			if err != nil {
				cc.log.Error().Err(err).Str("entity", string(ch.Resource.Entity)).Msg("Failed to render change path")
				return true
			}
			c.SSEvent(string(ch.Op), ChangeEvent{URI: uri, Rows: ch.Rows})
			return true
		}
	})
}
