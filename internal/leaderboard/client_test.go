package leaderboard

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/pointsmarket/daily-draw-backend/internal/platform/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(baseURL string) *Client {
	return NewClient(config.LeaderboardConfig{
		BaseURL:        baseURL,
		TimeoutSeconds: 5,
		UserAgent:      "draw-backend-test",
	})
}

func TestFetchLeaderboardFromAPI(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/leaderboard", r.URL.Path)
		assert.Equal(t, "draw-backend-test", r.Header.Get("User-Agent"))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"leaderboard":[
			{"username":"alice","points":120,"rank":1,"transactions":14,"community_score":{"upvotes":9,"downvotes":1}},
			{"username":"bob","points":80,"transactions":3,"community_score":{"upvotes":2,"downvotes":0}},
			{"username":"","points":50}
		]}`))
	}))
	defer server.Close()

	participants, err := newTestClient(server.URL).FetchLeaderboard(context.Background())
	require.NoError(t, err)
	require.Len(t, participants, 2)

	assert.Equal(t, "alice", participants[0].Username)
	assert.Equal(t, 120, participants[0].Points)
	assert.Equal(t, 1, participants[0].Rank)
	assert.Equal(t, 14, participants[0].Transactions)
	assert.Equal(t, 9, participants[0].Upvotes)

	// 接口未给名次时按条目顺序补齐
	assert.Equal(t, "bob", participants[1].Username)
	assert.Equal(t, 2, participants[1].Rank)
}

// JSON接口失效时透明回退到HTML页面抓取
func TestFetchLeaderboardFallsBackToHTML(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/leaderboard":
			w.WriteHeader(http.StatusServiceUnavailable)
		case "/leaderboard":
			w.Write([]byte(`<html><body><table>
				<tr><td><a>alice</a></td><td>120</td></tr>
				<tr><td><a>bob</a></td><td>80</td></tr>
			</table></body></html>`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer server.Close()

	participants, err := newTestClient(server.URL).FetchLeaderboard(context.Background())
	require.NoError(t, err)
	require.Len(t, participants, 2)
	assert.Equal(t, "alice", participants[0].Username)
	assert.Equal(t, 120, participants[0].Points)
}

func TestFetchLeaderboardBothSourcesFail(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	_, err := newTestClient(server.URL).FetchLeaderboard(context.Background())
	assert.Error(t, err)
}

func TestGetUserCaseInsensitive(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"leaderboard":[{"username":"Alice","points":120,"rank":1}]}`))
	}))
	defer server.Close()

	client := newTestClient(server.URL)

	p, err := client.GetUser(context.Background(), "ALICE")
	require.NoError(t, err)
	require.NotNil(t, p)
	assert.Equal(t, "Alice", p.Username)

	p, err = client.GetUser(context.Background(), "nobody")
	require.NoError(t, err)
	assert.Nil(t, p)
}
