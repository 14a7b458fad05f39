package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"healthpulse/config"
	"healthpulse/handlers"
	"healthpulse/models"
	"healthpulse/routes"
	"healthpulse/services/chat"
	"healthpulse/services/community"
	"healthpulse/services/notification"
	"healthpulse/services/realtime"
	"healthpulse/services/scheduler"
	"healthpulse/tests/testutil"
	"healthpulse/utils"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type server struct {
	router   *gin.Engine
	registry *realtime.Registry
	notify   *notification.DefaultNotificationService
}

func newServer(t *testing.T) server {
	t.Helper()
	gin.SetMode(gin.TestMode)
	config.AppConfig.JWTSecret = "test-secret"
	config.AppConfig.AdminAPIKey = "admin-key"

	stores, db := testutil.NewTestStores(t)
	testutil.SeedUsers(t, db, "user-a", "user-b")
	logger := zap.NewNop()
	reg := realtime.NewRegistry(4)
	bc := realtime.NewBroadcaster(reg, time.Second, 4, logger)

	notifySvc, err := notification.NewDefaultNotificationService(stores.Notifications, realtime.NewDispatcher(reg, time.Second, logger), logger)
	require.NoError(t, err)
	chatSvc, err := chat.NewDefaultChatService(stores.Chat, nil, bc, logger)
	require.NoError(t, err)
	postSvc, err := community.NewDefaultCommunityService(stores.Posts, bc, logger)
	require.NoError(t, err)
	daily := scheduler.NewDailyBroadcast(notifySvc, stores.Users, scheduler.Options{}, logger)

	nh := handlers.NewNotificationHandler(notifySvc)
	ch := handlers.NewChatHandler(chatSvc)
	ph := handlers.NewPostHandler(postSvc)
	rh := handlers.NewRealtimeHandler(reg)
	dh := handlers.NewDeviceHandler(stores.Users)
	ah := handlers.NewAdminHandler(daily, scheduler.FixedSelector(config.DefaultDailyMessages[0]))
	remh := handlers.NewReminderHandler(nil)

	router := gin.New()
	router.Use(utils.ErrorHandler())
	routes.RegisterRoutes(router, &handlers.HandlerBundle{
		WebSocketHandler:          rh.WebSocketHandler,
		StreamHandler:             rh.StreamHandler,
		ListNotificationsHandler:  nh.ListHandler,
		UnreadCountHandler:        nh.UnreadCountHandler,
		MarkReadHandler:           nh.MarkReadHandler,
		MarkAllReadHandler:        nh.MarkAllReadHandler,
		MarkUnreadHandler:         nh.MarkUnreadHandler,
		DeleteNotificationHandler: nh.DeleteHandler,
		DeleteMatchingHandler:     nh.DeleteMatchingHandler,
		CreateReminderHandler:     remh.CreateReminderHandler,
		SendChatMessageHandler:    ch.SendMessageHandler,
		ChatHistoryHandler:        ch.HistoryHandler,
		ClearChatHandler:          ch.ClearHistoryHandler,
		CreatePostHandler:         ph.CreatePostHandler,
		ListPostsHandler:          ph.ListPostsHandler,
		DeletePostHandler:         ph.DeletePostHandler,
		UpdateFCMTokenHandler:     dh.UpdateFCMTokenHandler,
		RunDailyBroadcastHandler:  ah.RunDailyBroadcastHandler,
		LastDailyReportHandler:    ah.LastDailyReportHandler,
	})
	return server{router: router, registry: reg, notify: notifySvc}
}

func token(t *testing.T, userID string) string {
	t.Helper()
	tok, err := utils.GenerateToken(userID, time.Hour)
	require.NoError(t, err)
	return tok
}

func (s server) do(t *testing.T, method, path, userID string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if userID != "" {
		req.Header.Set("Authorization", "Bearer "+token(t, userID))
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func TestNotificationsRequireAuth(t *testing.T) {
	s := newServer(t)

	w := s.do(t, http.MethodGet, "/api/notifications", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestNotificationEndpoints(t *testing.T) {
	s := newServer(t)
	ctx := context.Background()
	n, err := s.notify.NotifyUser(ctx, "user-a", "Hydrate today")
	require.NoError(t, err)

	w := s.do(t, http.MethodGet, "/api/notifications?filter=unread", "user-a", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var list struct {
		Notifications []models.Notification `json:"notifications"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	require.Len(t, list.Notifications, 1)
	assert.Equal(t, n.ID, list.Notifications[0].ID)

	w = s.do(t, http.MethodGet, "/api/notifications?filter=bogus", "user-a", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(t, http.MethodGet, "/api/notifications/unread-count", "user-a", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"unread":1}`, w.Body.String())

	w = s.do(t, http.MethodPatch, "/api/notifications/"+n.ID+"/unread", "user-a", nil)
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = s.do(t, http.MethodPatch, "/api/notifications/"+n.ID+"/read", "user-b", nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = s.do(t, http.MethodPatch, "/api/notifications/"+n.ID+"/read", "user-a", nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = s.do(t, http.MethodPatch, "/api/notifications/"+n.ID+"/unread", "user-a", nil)
	assert.Equal(t, http.StatusConflict, w.Code)

	w = s.do(t, http.MethodPatch, "/api/notifications/read-all", "user-a", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"updated":0}`, w.Body.String())

	w = s.do(t, http.MethodDelete, "/api/notifications/"+n.ID, "user-a", nil)
	assert.Equal(t, http.StatusNoContent, w.Code)
	w = s.do(t, http.MethodDelete, "/api/notifications/"+n.ID, "user-a", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = s.do(t, http.MethodDelete, "/api/notifications?filter=read", "user-a", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"deleted":0}`, w.Body.String())
}

func TestPostAndChatEndpoints(t *testing.T) {
	s := newServer(t)
	listener := testutil.NewRecordingConn()
	s.registry.Attach(listener)

	w := s.do(t, http.MethodPost, "/api/posts", "user-a", map[string]string{"content": "Ran 5k"})
	require.Equal(t, http.StatusCreated, w.Code)
	var post models.Post
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &post))

	w = s.do(t, http.MethodGet, "/api/posts?page=1&page_size=10", "user-b", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Ran 5k")

	w = s.do(t, http.MethodDelete, "/api/posts/"+post.ID, "user-b", nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = s.do(t, http.MethodPost, "/api/chat/messages", "user-a", map[string]string{"text": "how much water?"})
	require.Equal(t, http.StatusCreated, w.Code)

	w = s.do(t, http.MethodGet, "/api/chat/history", "user-a", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var history struct {
		Messages []models.ChatMessage `json:"messages"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &history))
	assert.Len(t, history.Messages, 2)

	w = s.do(t, http.MethodPost, "/api/chat/messages", "user-a", map[string]string{})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	assert.Len(t, listener.EventsOf(realtime.EventNewPost), 1)
	assert.Len(t, listener.EventsOf(realtime.EventChatReply), 1)
}

func TestAdminDailyBroadcast(t *testing.T) {
	s := newServer(t)

	w := s.do(t, http.MethodPost, "/api/admin/broadcast/daily", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	req := httptest.NewRequest(http.MethodGet, "/api/admin/broadcast/daily", nil)
	req.Header.Set("X-Admin-Key", "admin-key")
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	req = httptest.NewRequest(http.MethodPost, "/api/admin/broadcast/daily", nil)
	req.Header.Set("X-Admin-Key", "admin-key")
	rec = httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	var report scheduler.RunReport
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &report))
	assert.Equal(t, 2, report.Created)

	list, err := s.notify.List(context.Background(), "user-b", models.FilterAll)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, config.DefaultDailyMessages[0], list[0].Message)
}

func TestReminderEndpointWithoutQueue(t *testing.T) {
	s := newServer(t)

	w := s.do(t, http.MethodPost, "/api/notifications/reminders", "user-a", map[string]any{"message": "x", "fireAt": time.Now()})
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestWebSocketJoinAndDeliver(t *testing.T) {
	s := newServer(t)
	ts := httptest.NewServer(s.router)
	t.Cleanup(ts.Close)

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws?token=" + token(t, "user-a")
	ws, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = ws.Close() })
	_ = ws.SetReadDeadline(time.Now().Add(5 * time.Second))

	require.NoError(t, ws.WriteJSON(realtime.ClientFrame{Event: "join", Identity: "user-b"}))
	var ev map[string]any
	require.NoError(t, ws.ReadJSON(&ev))
	assert.Equal(t, string(realtime.EventError), ev["event"])

	require.NoError(t, ws.WriteJSON(realtime.ClientFrame{Event: "join", Identity: "user-a"}))
	require.NoError(t, ws.ReadJSON(&ev))
	assert.Equal(t, string(realtime.EventJoined), ev["event"])

	_, err = s.notify.NotifyUser(context.Background(), "user-a", "Hydrate today")
	require.NoError(t, err)
	require.NoError(t, ws.ReadJSON(&ev))
	assert.Equal(t, string(realtime.EventNewNotification), ev["event"])
	data := ev["data"].(map[string]any)
	assert.Equal(t, "Hydrate today", data["message"])
}
