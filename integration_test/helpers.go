package integration_test

import (
	"database/sql"
	"net/http"
	"net/http/cookiejar"

	_ "modernc.org/sqlite"
)

// newBrowser returns a client that keeps cookies like a browser but
// stops at redirects so tests can observe the 302s.
func newBrowser() (*http.Client, error) {
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, err
	}
	return &http.Client{
		Jar: jar,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}, nil
}

func findCookie(resp *http.Response, name string) *http.Cookie {
	for _, cookie := range resp.Cookies() {
		if cookie.Name == name {
			return cookie
		}
	}
	return nil
}

func countUsers(dbPath string) (int, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return 0, err
	}
	defer db.Close()

	var count int
	err = db.QueryRow("SELECT COUNT(*) FROM users").Scan(&count)
	return count, err
}

func userToken(dbPath, userID, platform string) (string, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return "", err
	}
	defer db.Close()

	var token string
	err = db.QueryRow("SELECT token FROM users WHERE user_id = ? AND platform = ?", userID, platform).Scan(&token)
	return token, err
}
