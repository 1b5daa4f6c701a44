package pushnotification

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	webpush "github.com/SherClockHolmes/webpush-go"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kazz187/volunteerdesk/internal/auth"
	"github.com/kazz187/volunteerdesk/internal/config"
	"github.com/kazz187/volunteerdesk/internal/content"
	contentimpl "github.com/kazz187/volunteerdesk/internal/content/repositoryimpl"
	"github.com/kazz187/volunteerdesk/internal/eventbus"
	"github.com/kazz187/volunteerdesk/internal/pushsubscription"
	pushimpl "github.com/kazz187/volunteerdesk/internal/pushsubscription/repositoryimpl"
	"github.com/kazz187/volunteerdesk/internal/task"
	"github.com/kazz187/volunteerdesk/pkg/cerr"
	"github.com/kazz187/volunteerdesk/pkg/storage"
)

type sent struct {
	endpoint string
	payload  NotificationPayload
}

type fakePush struct {
	mu     sync.Mutex
	sent   []sent
	status map[string]int
}

func (f *fakePush) push(_ context.Context, message []byte, s *webpush.Subscription, _ *webpush.Options) (*http.Response, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var p NotificationPayload
	if err := json.Unmarshal(message, &p); err != nil {
		return nil, err
	}
	f.sent = append(f.sent, sent{endpoint: s.Endpoint, payload: p})
	status := http.StatusCreated
	if code, ok := f.status[s.Endpoint]; ok {
		status = code
	}
	return &http.Response{StatusCode: status, Body: io.NopCloser(strings.NewReader(""))}, nil
}

func (f *fakePush) snapshot() []sent {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]sent(nil), f.sent...)
}

var vapid = &config.VAPIDEnv{PublicKey: "pub", PrivateKey: "priv", Subject: "mailto:desk@example.org"}

func newSender(t *testing.T, env *config.VAPIDEnv) (*Sender, pushsubscription.Repository, *fakePush) {
	t.Helper()
	repo := pushimpl.NewYAMLRepository(storage.NewMemoryStorage())
	fake := &fakePush{status: map[string]int{}}
	s := NewSender(env, repo)
	s.push = fake.push
	return s, repo, fake
}

func subscribe(t *testing.T, repo pushsubscription.Repository, id, volunteerID string) {
	t.Helper()
	require.NoError(t, repo.Save(context.Background(), &pushsubscription.Subscription{
		ID: id, VolunteerID: volunteerID, Endpoint: "https://push.example/" + id, P256dhKey: "p", AuthKey: "a",
	}))
}

func TestSender_SendToVolunteer(t *testing.T) {
	ctx := context.Background()
	s, repo, fake := newSender(t, vapid)
	subscribe(t, repo, "s1", "vol-1")
	subscribe(t, repo, "s2", "vol-1")
	subscribe(t, repo, "s3", "vol-2")
	fake.status["https://push.example/s2"] = http.StatusGone

	delivered := s.SendToVolunteer(ctx, "vol-1", &NotificationPayload{Title: "hi"})
	assert.Equal(t, 1, delivered)
	require.Len(t, fake.snapshot(), 2)

	// Expired subscriptions are removed.
	_, err := repo.Get(ctx, "s2")
	assert.True(t, cerr.IsCode(err, cerr.NotFound))
	_, err = repo.Get(ctx, "s3")
	assert.NoError(t, err)
}

func TestSender_DisabledWithoutKeys(t *testing.T) {
	s, repo, fake := newSender(t, &config.VAPIDEnv{})
	subscribe(t, repo, "s1", "vol-1")

	assert.Zero(t, s.SendToVolunteer(context.Background(), "vol-1", &NotificationPayload{Title: "hi"}))
	assert.Empty(t, fake.snapshot())
}

func TestDispatcher_NotifiesAssignee(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	s, repo, fake := newSender(t, vapid)
	subscribe(t, repo, "s1", "vol-1")
	contents := contentimpl.NewYAMLRepository(storage.NewMemoryStorage())
	require.NoError(t, contents.Create(ctx, &content.Record{
		ID: "c1", Title: "Spring fair recap",
		Task: &content.Task{Category: content.CategoryReview, Priority: content.PriorityHigh, Status: content.StatusClaimed, AssignedTo: "vol-1"},
	}))

	bus := eventbus.New()
	d := NewDispatcher(bus, contents, s)
	done := make(chan error, 1)
	go func() { done <- d.Run(ctx) }()

	// Wait for the dispatcher to subscribe before publishing.
	require.Eventually(t, func() bool {
		bus.PublishNew(eventbus.EventTaskStatusChanged, "c1", map[string]string{task.MetaAssignedTo: "vol-1"})
		bus.PublishNew(eventbus.EventTaskAssigned, "c1", map[string]string{
			task.MetaAssignedTo: "vol-1", task.MetaMethod: string(task.MethodAutomatic),
		})
		return len(fake.snapshot()) > 0
	}, 2*time.Second, 20*time.Millisecond)

	got := fake.snapshot()[0]
	assert.Equal(t, "https://push.example/s1", got.endpoint)
	assert.Equal(t, "Task matched to you", got.payload.Title)
	assert.Equal(t, "Spring fair recap (review, high priority)", got.payload.Body)
	assert.Equal(t, "/content/c1", got.payload.URL)

	cancel()
	require.NoError(t, <-done)
}

func TestServer_Subscriptions(t *testing.T) {
	s, repo, _ := newSender(t, vapid)
	srv := NewServer(vapid, repo, s)
	router := func(userID string) http.Handler {
		r := chi.NewRouter()
		r.Use(cerr.NewJSONResponseChiMiddleware(), func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				next.ServeHTTP(w, r.WithContext(auth.ContextWithCaller(r.Context(), auth.Caller{UserID: userID, Role: "contributor"})))
			})
		})
		srv.Mount(r)
		return r
	}
	call := func(h http.Handler, method, target, body string) *httptest.ResponseRecorder {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(method, target, strings.NewReader(body)))
		return rec
	}
	ctx := context.Background()
	vol1, vol2 := router("vol-1"), router("vol-2")

	rec := call(vol1, http.MethodGet, "/push/vapid-public-key", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"public_key":"pub"}`, rec.Body.String())

	rec = call(vol1, http.MethodPost, "/push/subscriptions", `{"endpoint":"https://push.example/x"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = call(vol1, http.MethodPost, "/push/subscriptions", `{"endpoint":"https://push.example/x","p256dh_key":"p","auth_key":"a"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	rec = call(vol2, http.MethodPost, "/push/subscriptions", `{"endpoint":"https://push.example/x","p256dh_key":"p2","auth_key":"a2"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	sub, err := repo.FindByEndpoint(ctx, "https://push.example/x")
	require.NoError(t, err)
	assert.Equal(t, "vol-2", sub.VolunteerID)
	assert.Equal(t, "p2", sub.P256dhKey)
	subs, err := repo.ListByVolunteer(ctx, "vol-1")
	require.NoError(t, err)
	assert.Empty(t, subs)

	rec = call(vol1, http.MethodDelete, "/push/subscriptions", `{"endpoint":"https://push.example/x"}`)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	rec = call(vol2, http.MethodDelete, "/push/subscriptions", `{"endpoint":"https://push.example/x"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	_, err = repo.FindByEndpoint(ctx, "https://push.example/x")
	assert.True(t, cerr.IsCode(err, cerr.NotFound))
}
