package handler_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"github.com/xxxsen/common/webapi"

	"github.com/reviewlens/reviewlens/internal/ai"
	"github.com/reviewlens/reviewlens/internal/annotate"
	"github.com/reviewlens/reviewlens/internal/handler"
	"github.com/reviewlens/reviewlens/internal/metrics"
	"github.com/reviewlens/reviewlens/internal/middleware"
	"github.com/reviewlens/reviewlens/internal/reply"
	"github.com/reviewlens/reviewlens/internal/repo"
	"github.com/reviewlens/reviewlens/internal/service"
	"github.com/reviewlens/reviewlens/internal/similarity"
	"github.com/reviewlens/reviewlens/internal/testutil"
)

type envelope struct {
	Code int             `json:"code"`
	Msg  string          `json:"msg"`
	Data json.RawMessage `json:"data"`
}

func setupRouter(t *testing.T) http.Handler {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, driver, cleanup := testutil.OpenTestDB(t)
	t.Cleanup(cleanup)
	reviews := repo.NewReviewRepo(db, driver)
	collector := metrics.NewCollector()
	holder := similarity.NewHolder(service.CorpusLoader(reviews), similarity.DefaultMaxFeatures)
	annotator := annotate.New(ai.NewLexiconClassifier())
	reviewService := service.NewReviewService(reviews, annotator, holder, nil, collector)
	replyService := service.NewReplyService(reviews, reply.New(nil), 100, time.Minute)

	deps := handler.RouterDeps{
		System:    handler.NewSystemHandler("test"),
		Reviews:   handler.NewReviewHandler(reviewService, replyService, 1024*1024),
		Analytics: handler.NewAnalyticsHandler(service.NewAnalyticsService(reviews)),
		Metrics:   collector.Handler(),
	}
	engine, err := webapi.NewEngine(
		"/api/v1",
		"",
		webapi.WithRegister(func(group *gin.RouterGroup) {
			handler.RegisterRoutes(group, deps)
		}),
		webapi.WithExtraMiddlewares(
			middleware.RequestID(),
			middleware.CORS(nil),
			collector.Middleware(),
		),
	)
	require.NoError(t, err)
	return engine
}

func doRequest(t *testing.T, router http.Handler, method, path string, body []byte) (int, envelope) {
	t.Helper()
	req := httptest.NewRequest(method, path, bytes.NewReader(body))
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	var env envelope
	if resp.Header().Get("Content-Type") != "" && bytes.HasPrefix(bytes.TrimSpace(resp.Body.Bytes()), []byte("{")) {
		require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &env))
	}
	return resp.Code, env
}

func decodeData(t *testing.T, env envelope, dst interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(env.Data, dst))
}
