package reddit

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iWorld-y/niche_radar/app/niche_radar/pkg/config"
)

const subredditListing = `{"kind":"Listing","data":{"after":null,"children":[
	{"kind":"t5","data":{"display_name":"homebrewing","title":"Homebrewing","public_description":"Brew at home",
		"subscribers":120000,"active_user_count":2400,"url":"/r/homebrewing/","created_utc":1200000000,"over18":false}},
	{"kind":"t5","data":{"display_name":"beer","title":"Beer","public_description":"",
		"subscribers":900000,"accounts_active":3000,"url":"/r/beer/","created_utc":1200000000,"over18":false}},
	{"kind":"t3","data":{"title":"not a subreddit"}}
]}}`

const postListing = `{"kind":"Listing","data":{"children":[
	{"kind":"t3","data":{"title":"Weekly thread","permalink":"/r/homebrewing/comments/0/","subreddit":"homebrewing","stickied":true}},
	{"kind":"t3","data":{"title":"How to stop off flavors?","permalink":"/r/homebrewing/comments/1/","subreddit":"homebrewing"}},
	{"kind":"t3","data":{"title":"Looking for a kegerator","permalink":"/r/homebrewing/comments/2/","subreddit":"homebrewing"}}
]}}`

func newRedditServer(t *testing.T) *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/api/v1/access_token":
			user, pass, ok := r.BasicAuth()
			if !ok || user != "id" || pass != "secret" {
				w.WriteHeader(http.StatusUnauthorized)
				_, _ = w.Write([]byte(`{"error":"invalid_client"}`))
				return
			}
			assert.NoError(t, r.ParseForm())
			assert.Equal(t, "client_credentials", r.PostForm.Get("grant_type"))
			_, _ = w.Write([]byte(`{"access_token":"tok","token_type":"bearer","expires_in":3600}`))
		case "/subreddits/search":
			assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
			assert.Equal(t, "homebrew", r.URL.Query().Get("q"))
			assert.Equal(t, "off", r.URL.Query().Get("include_over_18"))
			_, _ = w.Write([]byte(subredditListing))
		case "/r/homebrewing/top":
			assert.Equal(t, "month", r.URL.Query().Get("t"))
			assert.Equal(t, "25", r.URL.Query().Get("limit"))
			_, _ = w.Write([]byte(postListing))
		case "/subreddits/popular":
			_, _ = w.Write([]byte(`{"kind":"Listing","data":{"children":[]}}`))
		default:
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"message":"Not Found"}`))
		}
	}))
}

func newTestClient(url, secret string) *Client {
	return NewClient(config.RedditConfig{
		ClientID:     "id",
		ClientSecret: secret,
		UserAgent:    "niche_radar-test",
		AuthURL:      url + "/api/v1/access_token",
		BaseURL:      url,
		Timeout:      5,
	}, nil)
}

func TestSearchCommunities(t *testing.T) {
	srv := newRedditServer(t)
	defer srv.Close()

	sess, err := newTestClient(srv.URL, "secret").Open(context.Background())
	require.NoError(t, err)
	defer sess.Close()

	communities, err := sess.SearchCommunities(context.Background(), "homebrew", 20, false)
	require.NoError(t, err)
	require.Len(t, communities, 2)

	hb := communities[0]
	assert.Equal(t, "homebrewing", hb.Name)
	assert.Equal(t, "Brew at home", hb.Description)
	assert.Equal(t, 120000, hb.SubscriberCount)
	assert.Equal(t, 2400, hb.ActiveUserCount)
	assert.Equal(t, "https://www.reddit.com/r/homebrewing/", hb.URL)
	assert.Equal(t, 2008, hb.CreatedAt.Year())
	assert.Contains(t, string(hb.Raw), `"display_name":"homebrewing"`)

	// active_user_count 缺失时回退到 accounts_active
	assert.Equal(t, 3000, communities[1].ActiveUserCount)
}

func TestListPosts(t *testing.T) {
	srv := newRedditServer(t)
	defer srv.Close()

	sess, err := newTestClient(srv.URL, "secret").Open(context.Background())
	require.NoError(t, err)
	defer sess.Close()

	posts, err := sess.ListPosts(context.Background(), "homebrewing", "top", "month", 25)
	require.NoError(t, err)
	require.Len(t, posts, 2)
	assert.Equal(t, "How to stop off flavors?", posts[0].Title)
	assert.Equal(t, "https://www.reddit.com/r/homebrewing/comments/1/", posts[0].Permalink)
	assert.Equal(t, "homebrewing", posts[0].Community)

	_, err = sess.ListPosts(context.Background(), "missing", "top", "month", 25)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 404")

	_, err = sess.ListPosts(context.Background(), " ", "", "", 0)
	assert.Error(t, err)
}

func TestOpen_BadCredentials(t *testing.T) {
	srv := newRedditServer(t)
	defer srv.Close()

	_, err := newTestClient(srv.URL, "wrong").Open(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 401")
}

func TestPing(t *testing.T) {
	srv := newRedditServer(t)
	defer srv.Close()

	sess, err := newTestClient(srv.URL, "secret").Open(context.Background())
	require.NoError(t, err)
	defer sess.Close()
	assert.NoError(t, sess.Ping(context.Background()))
}
