package tidsreg

import (
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"sync"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/sirupsen/logrus"
	"github.com/tidwall/gjson"
	"golang.org/x/net/html"

	"github.com/Sozary/tidsreg/internal/utils"
)

const (
	DefaultBaseURL = "https://tidsreg.trifork.com"

	userAgent      = "Mozilla/5.0 (X11; Linux x86_64; rv:82.0) Gecko/20100101 Firefox/82.0"
	authCookieName = "AuthTicket"
)

// Client holds one authenticated Tidsreg session: a cookie jar plus the
// authenticated flag set by Login. A mutex serializes login and data calls so
// a login's cookie update can never interleave with an in-flight fetch.
type Client struct {
	baseURL string
	http    *retryablehttp.Client

	mu            sync.Mutex
	authenticated bool
}

// NewClient builds a session client against baseURL (DefaultBaseURL when
// empty). proxy, when set, routes every request through the given HTTP proxy,
// which is mostly useful for debugging.
func NewClient(baseURL, proxy string) (*Client, error) {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, err
	}

	retryClient := retryablehttp.NewClient()
	retryClient.Logger = log.New(io.Discard, "", 0)
	retryClient.RetryMax = 2
	// Hand back the last response once retries are exhausted, so a persistent
	// 5xx keeps its status instead of collapsing into a generic error.
	retryClient.ErrorHandler = retryablehttp.PassthroughErrorHandler
	retryClient.HTTPClient.Jar = jar

	if proxy != "" {
		proxyURL, err := url.Parse(proxy)
		if err != nil {
			return nil, fmt.Errorf("invalid proxy URL: %v", err)
		}
		retryClient.HTTPClient.Transport = &http.Transport{
			Proxy: http.ProxyURL(proxyURL),
		}
	}

	return &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		http:    retryClient,
	}, nil
}

// Login authenticates with a form POST. Tidsreg answers 200 whether or not
// the credentials were right; the AuthTicket cookie is the only reliable
// success signal.
func (c *Client) Login(username, password string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	form := url.Values{
		"userName": {username},
		"password": {password},
	}

	req, err := retryablehttp.NewRequest("POST", c.baseURL+"/Login?ReturnUrl=/", strings.NewReader(form.Encode()))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode != http.StatusOK {
		return &UpstreamHTTPError{Status: resp.StatusCode, Reason: "login failed: " + http.StatusText(resp.StatusCode)}
	}

	base, err := url.Parse(c.baseURL)
	if err != nil {
		return err
	}
	for _, cookie := range c.http.HTTPClient.Jar.Cookies(base) {
		if cookie.Name == authCookieName {
			c.authenticated = true
			utils.Log.WithField("user", username).Debug("tidsreg login succeeded")
			return nil
		}
	}

	return ErrAuthenticationFailed
}

// IsAuthenticated reports whether a previous Login call obtained an
// AuthTicket cookie.
func (c *Client) IsAuthenticated() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.authenticated
}

// Customers lists every customer visible to the session.
func (c *Client) Customers() (json.RawMessage, error) {
	return c.find("/Find/SelectCustomers", url.Values{"mode": {"0"}})
}

// Projects lists a customer's projects as of date (YYYY-MM-DD).
func (c *Client) Projects(customerID, date string) (json.RawMessage, error) {
	return c.find("/Find/SelectProjects", url.Values{
		"mode":       {"0"},
		"date":       {date},
		"customerId": {customerID},
	})
}

// Phases lists a project's phases as of date (YYYY-MM-DD).
func (c *Client) Phases(projectID, date string) (json.RawMessage, error) {
	return c.find("/Find/SelectPhases", url.Values{
		"mode":      {"0"},
		"date":      {date},
		"projectId": {projectID},
	})
}

// Activities lists a phase's activities as of date (YYYY-MM-DD).
func (c *Client) Activities(phaseID, date string) (json.RawMessage, error) {
	return c.find("/Find/SelectActivities", url.Values{
		"mode":    {"0"},
		"date":    {date},
		"phaseId": {phaseID},
	})
}

// Kinds lists the registration kinds for a project and activity combination.
func (c *Client) Kinds(projectName, activityName string) (json.RawMessage, error) {
	return c.find("/Find/SelectKinds", url.Values{
		"mode":         {"0"},
		"projectName":  {projectName},
		"activityName": {activityName},
	})
}

// find performs one lookup GET and shapes the response the way the Find
// endpoints are consumed: JSON bodies pass through untouched, anything else
// becomes a success marker carrying the raw text.
func (c *Client) find(path string, query url.Values) (json.RawMessage, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	body, err := c.get(path, query)
	if err != nil {
		return nil, err
	}

	if gjson.ValidBytes(body) {
		return json.RawMessage(body), nil
	}
	wrapped, err := json.Marshal(map[string]interface{}{
		"success": true,
		"text":    string(body),
	})
	if err != nil {
		return nil, err
	}
	return json.RawMessage(wrapped), nil
}

// get issues one GET with the session cookies, following redirects. Callers
// must hold c.mu.
func (c *Client) get(path string, query url.Values) ([]byte, error) {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	req, err := retryablehttp.NewRequest("GET", u, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode != http.StatusOK {
		return nil, &UpstreamHTTPError{Status: resp.StatusCode, Reason: http.StatusText(resp.StatusCode)}
	}

	utils.Log.WithFields(logrus.Fields{
		"path":  path,
		"bytes": len(body),
		"title": pageTitle(string(body)),
	}).Debug("tidsreg GET")

	return body, nil
}

// pageTitle pulls the <title> out of an HTML body, for debug logging of
// upstream responses. Returns "" for non-HTML bodies.
func pageTitle(body string) string {
	doc, err := html.Parse(strings.NewReader(body))
	if err != nil {
		return ""
	}

	var walk func(n *html.Node) (string, bool)
	walk = func(n *html.Node) (string, bool) {
		if n.Type == html.ElementNode && n.Data == "title" {
			if n.FirstChild != nil {
				return strings.TrimSpace(n.FirstChild.Data), true
			}
			return "", true
		}
		for child := n.FirstChild; child != nil; child = child.NextSibling {
			if title, ok := walk(child); ok {
				return title, ok
			}
		}
		return "", false
	}

	title, _ := walk(doc)
	return title
}
