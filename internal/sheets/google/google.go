// Package google implements the sheets mirror on the Google Sheets API.
package google

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"
	"sync"

	"golang.org/x/oauth2"
	goauth "golang.org/x/oauth2/google"
	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"

	"kharcha/internal/log"
	"kharcha/internal/sheets"
)

var _ sheets.RecordMirror = (*Client)(nil)

// Credentials selects how the client authenticates. The first non-empty
// source wins: inline service account JSON, service account file, then an
// OAuth client plus a token minted by cmd/oauth-init.
type Credentials struct {
	ServiceAccountJSON string
	ServiceAccountFile string
	OAuthClientFile    string
	OAuthTokenFile     string
}

type Client struct {
	svc           *gsheet.Service
	spreadsheetID string
	logger        *log.Logger

	mu    sync.Mutex
	known map[string]bool
}

// New authenticates and returns a client for spreadsheetID.
func New(ctx context.Context, spreadsheetID string, creds Credentials, logger *log.Logger) (*Client, error) {
	opts, err := clientOptions(ctx, creds)
	if err != nil {
		return nil, err
	}
	return NewWithOptions(ctx, spreadsheetID, logger, opts...)
}

// NewWithOptions builds a client from raw API options, e.g. a custom
// endpoint.
func NewWithOptions(ctx context.Context, spreadsheetID string, logger *log.Logger, opts ...goption.ClientOption) (*Client, error) {
	if strings.TrimSpace(spreadsheetID) == "" {
		return nil, errors.New("missing spreadsheet ID")
	}
	if logger == nil {
		logger = log.Discard()
	}
	svc, err := gsheet.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	return &Client{
		svc:           svc,
		spreadsheetID: spreadsheetID,
		logger:        logger.WithComponent(log.ComponentSheets),
		known:         map[string]bool{},
	}, nil
}

func clientOptions(ctx context.Context, creds Credentials) ([]goption.ClientOption, error) {
	scopes := goption.WithScopes(gsheet.SpreadsheetsScope)
	switch {
	case creds.ServiceAccountJSON != "":
		return []goption.ClientOption{goption.WithCredentialsJSON([]byte(creds.ServiceAccountJSON)), scopes}, nil
	case creds.ServiceAccountFile != "":
		b, err := os.ReadFile(creds.ServiceAccountFile)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
		return []goption.ClientOption{goption.WithCredentialsJSON(b), scopes}, nil
	case creds.OAuthClientFile != "":
		hc, err := oauthHTTPClient(ctx, creds.OAuthClientFile, creds.OAuthTokenFile)
		if err != nil {
			return nil, err
		}
		return []goption.ClientOption{goption.WithHTTPClient(hc)}, nil
	default:
		return nil, errors.New("missing Google credentials (set GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE or GOOGLE_OAUTH_CLIENT_FILE)")
	}
}

func oauthHTTPClient(ctx context.Context, clientFile, tokenFile string) (*http.Client, error) {
	b, err := os.ReadFile(clientFile)
	if err != nil {
		return nil, fmt.Errorf("read oauth client file: %w", err)
	}
	cfg, err := OAuthConfig(b)
	if err != nil {
		return nil, err
	}
	tok, err := ReadToken(tokenFile)
	if err != nil {
		return nil, err
	}
	return cfg.Client(ctx, tok), nil
}

// OAuthConfig parses a downloaded OAuth client JSON for the Sheets scope.
func OAuthConfig(clientJSON []byte) (*oauth2.Config, error) {
	cfg, err := goauth.ConfigFromJSON(clientJSON, gsheet.SpreadsheetsScope)
	if err != nil {
		return nil, fmt.Errorf("oauth config: %w", err)
	}
	return cfg, nil
}

// ReadToken loads an OAuth token saved by SaveToken.
func ReadToken(path string) (*oauth2.Token, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open oauth token: %w", err)
	}
	defer f.Close()
	var tok oauth2.Token
	if err := json.NewDecoder(f).Decode(&tok); err != nil {
		return nil, fmt.Errorf("decode oauth token: %w", err)
	}
	return &tok, nil
}

// SaveToken writes tok to path, readable by the owner only.
func SaveToken(path string, tok *oauth2.Token) error {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0600)
	if err != nil {
		return fmt.Errorf("open token file: %w", err)
	}
	if err := json.NewEncoder(f).Encode(tok); err != nil {
		f.Close()
		return fmt.Errorf("write token: %w", err)
	}
	return f.Close()
}

// a1 quotes a tab name for A1 notation.
func a1(tab, cell string) string {
	return "'" + strings.ReplaceAll(tab, "'", "''") + "'!" + cell
}

func (c *Client) EnsureTab(ctx context.Context, tab string, header []string) error {
	c.mu.Lock()
	known := c.known[tab]
	c.mu.Unlock()
	if known {
		return nil
	}

	ss, err := c.svc.Spreadsheets.Get(c.spreadsheetID).Fields("sheets.properties.title").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("read spreadsheet: %w", err)
	}
	exists := false
	for _, sh := range ss.Sheets {
		if sh.Properties != nil && sh.Properties.Title == tab {
			exists = true
			break
		}
	}

	if !exists {
		req := &gsheet.BatchUpdateSpreadsheetRequest{Requests: []*gsheet.Request{{
			AddSheet: &gsheet.AddSheetRequest{Properties: &gsheet.SheetProperties{Title: tab}},
		}}}
		if _, err := c.svc.Spreadsheets.BatchUpdate(c.spreadsheetID, req).Context(ctx).Do(); err != nil {
			return fmt.Errorf("add tab %q: %w", tab, err)
		}
		cells := make([]any, len(header))
		for i, h := range header {
			cells[i] = h
		}
		vr := &gsheet.ValueRange{Values: [][]any{cells}}
		if _, err := c.svc.Spreadsheets.Values.Update(c.spreadsheetID, a1(tab, "A1"), vr).ValueInputOption("RAW").Context(ctx).Do(); err != nil {
			return fmt.Errorf("write header for %q: %w", tab, err)
		}
		c.logger.InfoContext(ctx, "Created sheet tab", "tab", tab)
	}

	c.mu.Lock()
	c.known[tab] = true
	c.mu.Unlock()
	return nil
}

func (c *Client) AppendRow(ctx context.Context, tab string, row []any) (string, error) {
	vr := &gsheet.ValueRange{Values: [][]any{row}}
	resp, err := c.svc.Spreadsheets.Values.Append(c.spreadsheetID, a1(tab, "A1"), vr).
		ValueInputOption("USER_ENTERED").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).
		Do()
	if err != nil {
		return "", fmt.Errorf("append to %q: %w", tab, err)
	}
	ref := tab
	if resp.Updates != nil && resp.Updates.UpdatedRange != "" {
		ref = resp.Updates.UpdatedRange
	}
	c.logger.DebugContext(ctx, "Appended row", "tab", tab, log.FieldSheetsRef, ref)
	return ref, nil
}
