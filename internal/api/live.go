package api

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"github.com/pageza/chef-next-door/backend/internal/apperr"
	"github.com/pageza/chef-next-door/backend/internal/hooks"
	"github.com/pageza/chef-next-door/backend/internal/middleware"
	"github.com/pageza/chef-next-door/backend/internal/models"
	"github.com/pageza/chef-next-door/backend/internal/session"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = pongWait * 9 / 10
)

// Live resources a client may subscribe to.
const (
	ResourceProfile       = "profile"
	ResourceUserRecipes   = "user_recipes"
	ResourceRecipe        = "recipe"
	ResourceAllRecipes    = "all_recipes"
	ResourceSearchRecipes = "search_recipes"
	ResourceGlobalSearch  = "global_search"
)

// LiveParams parameterize a subscription. Which fields apply depends on
// the resource.
type LiveParams struct {
	ID              *uuid.UUID `json:"id,omitempty"`
	Query           string     `json:"q,omitempty"`
	Limit           int        `json:"limit,omitempty"`
	Offset          int        `json:"offset,omitempty"`
	Featured        *bool      `json:"featured,omitempty"`
	Difficulty      string     `json:"difficulty,omitempty"`
	Tags            []string   `json:"tags,omitempty"`
	IncludeRecipes  *bool      `json:"include_recipes,omitempty"`
	IncludeProfiles *bool      `json:"include_profiles,omitempty"`
}

// LiveRequest is a client frame. Op is one of subscribe, unsubscribe,
// set_query, revalidate, focus or reconnect.
type LiveRequest struct {
	Op       string     `json:"op"`
	ID       string     `json:"id,omitempty"`
	Resource string     `json:"resource,omitempty"`
	Params   LiveParams `json:"params"`
}

// LiveMessage is a server frame: the state of one subscription or an
// error answering a request.
type LiveMessage struct {
	Type         string                    `json:"type"`
	ID           string                    `json:"id,omitempty"`
	Status       hooks.Status              `json:"status,omitempty"`
	Data         any                       `json:"data,omitempty"`
	Error        *middleware.ErrorResponse `json:"error,omitempty"`
	IsValidating bool                      `json:"is_validating,omitempty"`
	Revalidated  *int                      `json:"revalidated,omitempty"`
}

// LiveHandler serves /live: one websocket per client, any number of
// subscriptions on it, each pushing its state whenever it changes.
type LiveHandler struct {
	reads     *hooks.Resources
	upgrader  websocket.Upgrader
	loginPath string
	log       logrus.FieldLogger
}

func NewLiveHandler(reads *hooks.Resources, origins []string, loginPath string, log logrus.FieldLogger) *LiveHandler {
	allowed := make(map[string]bool, len(origins))
	for _, o := range origins {
		allowed[o] = true
	}
	return &LiveHandler{
		reads:     reads,
		loginPath: loginPath,
		log:       log.WithField("component", "Live"),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				if origin == "" || allowed["*"] || allowed[origin] {
					return true
				}
				u, err := url.Parse(origin)
				return err == nil && u.Host == r.Host
			},
		},
	}
}

func (h *LiveHandler) RegisterRoutes(r gin.IRouter) {
	r.GET("/live", h.Serve)
}

func (h *LiveHandler) Serve(c *gin.Context) {
	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// Upgrade has already answered the request.
		h.log.WithError(err).Debug("websocket upgrade failed")
		return
	}

	ctx, cancel := context.WithCancel(context.WithoutCancel(c.Request.Context()))
	lc := &liveConn{
		handler: h,
		conn:    conn,
		sess:    middleware.GetSession(c),
		ctx:     ctx,
		cancel:  cancel,
		subs:    make(map[string]*liveSub),
	}
	lc.run()
}

type liveSub struct {
	sub    hooks.Subscription
	cancel context.CancelFunc
	// search is set for search_recipes so set_query can retarget it.
	search     *hooks.Query[[]models.Recipe]
	searchOpts models.SearchOptions
}

type liveConn struct {
	handler *LiveHandler
	conn    *websocket.Conn
	sess    session.Session
	ctx     context.Context
	cancel  context.CancelFunc

	writeMu sync.Mutex

	mu   sync.Mutex
	subs map[string]*liveSub
	wg   sync.WaitGroup
}

func (lc *liveConn) run() {
	defer lc.close()

	go lc.ping()

	lc.conn.SetReadDeadline(time.Now().Add(pongWait))
	lc.conn.SetPongHandler(func(string) error {
		return lc.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		var req LiveRequest
		if err := lc.conn.ReadJSON(&req); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				lc.handler.log.WithError(err).Debug("live connection closed")
			}
			return
		}
		lc.handle(req)
	}
}

func (lc *liveConn) close() {
	lc.cancel()
	lc.mu.Lock()
	for id, s := range lc.subs {
		s.cancel()
		s.sub.Close()
		delete(lc.subs, id)
	}
	lc.mu.Unlock()
	lc.wg.Wait()
	lc.conn.Close()
}

func (lc *liveConn) ping() {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()
	for {
		select {
		case <-lc.ctx.Done():
			return
		case <-ticker.C:
			lc.writeMu.Lock()
			err := lc.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait))
			lc.writeMu.Unlock()
			if err != nil {
				return
			}
		}
	}
}

func (lc *liveConn) send(msg LiveMessage) error {
	lc.writeMu.Lock()
	defer lc.writeMu.Unlock()
	lc.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return lc.conn.WriteJSON(msg)
}

func (lc *liveConn) sendError(id string, err error) {
	resp := middleware.NewErrorResponse(err, lc.handler.loginPath)
	_ = lc.send(LiveMessage{Type: "error", ID: id, Error: &resp})
}

// invalid reports a malformed client frame.
func invalid(format string, args ...any) error {
	return apperr.ValidationMsg("live", fmt.Sprintf(format, args...))
}

func (lc *liveConn) handle(req LiveRequest) {
	switch req.Op {
	case "subscribe":
		lc.subscribe(req)
	case "unsubscribe":
		lc.unsubscribe(req.ID)
	case "set_query":
		lc.setQuery(req)
	case "revalidate":
		s := lc.lookup(req.ID)
		if s == nil {
			lc.sendError(req.ID, invalid("unknown subscription %q", req.ID))
			return
		}
		go s.sub.Revalidate(lc.ctx)
	case "focus":
		n := lc.handler.reads.Client().Focus(lc.ctx)
		_ = lc.send(LiveMessage{Type: "focus", Revalidated: &n})
	case "reconnect":
		n := lc.handler.reads.Client().Reconnect(lc.ctx)
		_ = lc.send(LiveMessage{Type: "reconnect", Revalidated: &n})
	default:
		lc.sendError(req.ID, invalid("unknown op %q", req.Op))
	}
}

func (lc *liveConn) lookup(id string) *liveSub {
	lc.mu.Lock()
	defer lc.mu.Unlock()
	return lc.subs[id]
}

func searchOptions(p LiveParams) models.SearchOptions {
	return models.SearchOptions{Limit: p.Limit, Difficulty: p.Difficulty, Tags: p.Tags}
}

// open starts the hook subscription that backs resource.
func (lc *liveConn) open(ctx context.Context, resource string, p LiveParams) (*liveSub, error) {
	reads := lc.handler.reads
	switch resource {
	case ResourceProfile:
		q, err := reads.WatchProfile(ctx, lc.sess, p.ID)
		if err != nil {
			return nil, err
		}
		return &liveSub{sub: q}, nil
	case ResourceUserRecipes:
		q, err := reads.WatchUserRecipes(ctx, lc.sess, p.ID)
		if err != nil {
			return nil, err
		}
		return &liveSub{sub: q}, nil
	case ResourceRecipe:
		if p.ID == nil {
			return nil, invalid("recipe subscriptions need params.id")
		}
		return &liveSub{sub: reads.WatchRecipe(ctx, lc.sess, *p.ID)}, nil
	case ResourceAllRecipes:
		opts := models.ListOptions{
			Limit:      p.Limit,
			Offset:     p.Offset,
			Featured:   p.Featured,
			Difficulty: p.Difficulty,
			Tags:       p.Tags,
		}
		return &liveSub{sub: reads.WatchAllRecipes(ctx, lc.sess, opts)}, nil
	case ResourceSearchRecipes:
		opts := searchOptions(p)
		q := reads.WatchSearchRecipes(ctx, lc.sess, p.Query, opts)
		return &liveSub{sub: q, search: q, searchOpts: opts}, nil
	case ResourceGlobalSearch:
		opts := models.GlobalSearchOptions{
			IncludeRecipes:  p.IncludeRecipes,
			IncludeProfiles: p.IncludeProfiles,
			Limit:           p.Limit,
		}
		return &liveSub{sub: reads.WatchGlobalSearch(ctx, lc.sess, p.Query, opts)}, nil
	default:
		return nil, invalid("unknown resource %q", resource)
	}
}

func (lc *liveConn) subscribe(req LiveRequest) {
	if req.ID == "" {
		lc.sendError("", invalid("subscribe needs an id"))
		return
	}
	if lc.lookup(req.ID) != nil {
		lc.sendError(req.ID, invalid("subscription %q already exists", req.ID))
		return
	}

	ctx, cancel := context.WithCancel(lc.ctx)
	s, err := lc.open(ctx, req.Resource, req.Params)
	if err != nil {
		cancel()
		lc.sendError(req.ID, err)
		return
	}
	s.cancel = cancel

	lc.mu.Lock()
	lc.subs[req.ID] = s
	lc.mu.Unlock()

	lc.wg.Add(1)
	go lc.watch(ctx, req.ID, s.sub)
}

func (lc *liveConn) unsubscribe(id string) {
	lc.mu.Lock()
	s, ok := lc.subs[id]
	delete(lc.subs, id)
	lc.mu.Unlock()
	if ok {
		s.cancel()
		s.sub.Close()
	}
}

func (lc *liveConn) setQuery(req LiveRequest) {
	s := lc.lookup(req.ID)
	if s == nil || s.search == nil {
		lc.sendError(req.ID, invalid("no search subscription %q", req.ID))
		return
	}
	lc.mu.Lock()
	if req.Params.Limit > 0 || req.Params.Difficulty != "" || req.Params.Tags != nil {
		s.searchOpts = searchOptions(req.Params)
	}
	opts := s.searchOpts
	lc.mu.Unlock()
	lc.handler.reads.SetSearchQuery(s.search, lc.sess, req.Params.Query, opts)
}

// watch pushes the subscription's state on every change until the
// subscription or connection ends.
func (lc *liveConn) watch(ctx context.Context, id string, sub hooks.Subscription) {
	defer lc.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case <-sub.Changes():
		}
		if err := lc.send(stateMessage(id, sub.Snapshot(), lc.handler.loginPath)); err != nil {
			lc.cancel()
			return
		}
	}
}

func stateMessage(id string, snap hooks.Snapshot, loginPath string) LiveMessage {
	msg := LiveMessage{Type: "state", ID: id, Status: snap.Status, IsValidating: snap.IsValidating}
	if snap.HasData {
		msg.Data = snap.Data
	}
	if snap.Err != nil {
		resp := middleware.NewErrorResponse(snap.Err, loginPath)
		msg.Error = &resp
	}
	return msg
}
