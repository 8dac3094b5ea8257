package server

import (
	"sync"

	"github.com/modelcontext/refserver/logx"
	"github.com/modelcontext/refserver/protocol"
)

// SubscriptionManager is the cross-session subscription bus: it tracks which sessions
// want resources/updated notifications for which URIs, and delivers them by asking the
// owning Server for the live session on every publish. A session that has gone away
// between subscribe and publish is dropped silently rather than treated as an error —
// the bus holds no reference to the session itself, only its ID.
type SubscriptionManager struct {
	srv *Server

	mu             sync.RWMutex
	subscriptions  map[string]map[string]bool // uri -> set of session IDs
	sessionURIs    map[string]map[string]bool // session ID -> set of uris, for cleanup
	logger         logx.Logger
}

// NewSubscriptionManager creates a subscription bus bound to srv for session lookups.
func NewSubscriptionManager(srv *Server) *SubscriptionManager {
	return &SubscriptionManager{
		srv:           srv,
		subscriptions: make(map[string]map[string]bool),
		sessionURIs:   make(map[string]map[string]bool),
		logger:        logx.NewDefaultLogger(),
	}
}

// SetLogger updates the logger used by the subscription manager.
func (sm *SubscriptionManager) SetLogger(logger logx.Logger) {
	sm.logger = logger
}

// RegisterSession prepares empty bookkeeping for a newly connected session.
func (sm *SubscriptionManager) RegisterSession(sessionID string) {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	sm.sessionURIs[sessionID] = make(map[string]bool)
}

// UnregisterSession drops every subscription held by a closed session.
func (sm *SubscriptionManager) UnregisterSession(sessionID string) {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	for uri := range sm.sessionURIs[sessionID] {
		if subs, ok := sm.subscriptions[uri]; ok {
			delete(subs, sessionID)
			if len(subs) == 0 {
				delete(sm.subscriptions, uri)
			}
		}
	}
	delete(sm.sessionURIs, sessionID)
}

// Subscribe adds a subscription for sessionID to a single resource URI.
func (sm *SubscriptionManager) Subscribe(sessionID, uri string) {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	if _, ok := sm.subscriptions[uri]; !ok {
		sm.subscriptions[uri] = make(map[string]bool)
	}
	sm.subscriptions[uri][sessionID] = true
	if _, ok := sm.sessionURIs[sessionID]; !ok {
		sm.sessionURIs[sessionID] = make(map[string]bool)
	}
	sm.sessionURIs[sessionID][uri] = true
	sm.logger.Debug("session %s subscribed to resource %s", sessionID, uri)
}

// Unsubscribe removes sessionID's subscription to uri, if any.
func (sm *SubscriptionManager) Unsubscribe(sessionID, uri string) {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	if subs, ok := sm.subscriptions[uri]; ok {
		delete(subs, sessionID)
		if len(subs) == 0 {
			delete(sm.subscriptions, uri)
		}
	}
	delete(sm.sessionURIs[sessionID], uri)
}

// DropURI removes every subscription to uri, used when a resource is unregistered.
func (sm *SubscriptionManager) DropURI(uri string) {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	for sessionID := range sm.subscriptions[uri] {
		delete(sm.sessionURIs[sessionID], uri)
	}
	delete(sm.subscriptions, uri)
}

// subscriberIDs returns a snapshot of session IDs subscribed to uri.
func (sm *SubscriptionManager) subscriberIDs(uri string) []string {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	ids := make([]string, 0, len(sm.subscriptions[uri]))
	for id := range sm.subscriptions[uri] {
		ids = append(ids, id)
	}
	return ids
}

// Publish sends a resources/updated notification to every session subscribed to uri.
// Sessions that have since disconnected are skipped without error.
func (sm *SubscriptionManager) Publish(uri string) {
	for _, sessionID := range sm.subscriberIDs(uri) {
		session, ok := sm.srv.sessionByID(sessionID)
		if !ok {
			continue
		}
		params := protocol.ResourceUpdatedParams{URI: uri}
		if err := sm.srv.sendNotificationToSession(session, protocol.MethodNotifyResourceUpdated, params); err != nil {
			sm.logger.Warn("failed to deliver resources/updated for %s to session %s: %v", uri, sessionID, err)
		}
	}
}
