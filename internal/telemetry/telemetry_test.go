package telemetry

import (
	"errors"
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObserve(t *testing.T) {
	m := New()

	m.ObserveFetch(nil)
	m.ObserveFetch(errors.New("404"))
	m.ObserveFetch(nil)
	assert.Equal(t, 2.0, testutil.ToFloat64(m.ArticlesFetched.WithLabelValues(ResultOK)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ArticlesFetched.WithLabelValues(ResultFailed)))

	m.ObserveAnalysis(5*time.Millisecond, nil)
	m.ObserveAnalysis(0, errors.New("missing row"))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ArticlesAnalyzed.WithLabelValues(ResultOK)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ArticlesAnalyzed.WithLabelValues(ResultFailed)))
	assert.Equal(t, 1, testutil.CollectAndCount(m.AnalysisDuration))

	m.SetLexicon(10, 20, 30)
	assert.Equal(t, 20.0, testutil.ToFloat64(m.LexiconWords.WithLabelValues("positive")))
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	m.ObserveFetch(nil)
	m.ObserveAnalysis(time.Second, nil)
	m.SetLexicon(1, 2, 3)
}

func TestIndependentRegistries(t *testing.T) {
	a, b := New(), New()
	a.ObserveFetch(nil)
	assert.Equal(t, 0.0, testutil.ToFloat64(b.ArticlesFetched.WithLabelValues(ResultOK)))
}

func TestHandler(t *testing.T) {
	m := New()
	m.SetLexicon(1, 2, 3)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	body, err := io.ReadAll(rec.Result().Body)
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(body), `lexicon_words{set="negative"} 3`))
}
