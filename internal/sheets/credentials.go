package sheets

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/option"
	gsheets "google.golang.org/api/sheets/v4"
)

// Credentials selects how the Sheets client authenticates. A service
// account key takes precedence over an authorized user token.
type Credentials struct {
	ServiceAccountFile string
	UserTokenFile      string
	UserSecretFile     string // OAuth client secret, needed to refresh the user token
}

// NewService creates an authenticated Sheets service.
func NewService(ctx context.Context, creds Credentials) (*gsheets.Service, error) {
	if creds.ServiceAccountFile != "" {
		svc, err := gsheets.NewService(ctx,
			option.WithCredentialsFile(creds.ServiceAccountFile),
			option.WithScopes(gsheets.SpreadsheetsScope),
		)
		if err != nil {
			return nil, fmt.Errorf("create sheets service: %w", err)
		}
		return svc, nil
	}

	if creds.UserTokenFile == "" || creds.UserSecretFile == "" {
		return nil, errors.New("service account file or user token and secret files are required")
	}

	secret, err := os.ReadFile(creds.UserSecretFile)
	if err != nil {
		return nil, fmt.Errorf("read client secret: %w", err)
	}
	conf, err := google.ConfigFromJSON(secret, gsheets.SpreadsheetsScope)
	if err != nil {
		return nil, fmt.Errorf("parse client secret: %w", err)
	}

	tok, err := readUserToken(creds.UserTokenFile)
	if err != nil {
		return nil, err
	}

	svc, err := gsheets.NewService(ctx, option.WithHTTPClient(conf.Client(ctx, tok)))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	return svc, nil
}

// userToken accepts both the oauth2.Token layout and the authorized user
// layout written by Google's Python tooling ("token" instead of
// "access_token").
type userToken struct {
	AccessToken  string `json:"access_token"`
	Token        string `json:"token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
	Expiry       string `json:"expiry"`
}

func readUserToken(path string) (*oauth2.Token, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read user token: %w", err)
	}
	return parseUserToken(data)
}

func parseUserToken(data []byte) (*oauth2.Token, error) {
	var ut userToken
	if err := json.Unmarshal(data, &ut); err != nil {
		return nil, fmt.Errorf("parse user token: %w", err)
	}

	tok := &oauth2.Token{
		AccessToken:  ut.AccessToken,
		RefreshToken: ut.RefreshToken,
		TokenType:    ut.TokenType,
	}
	if tok.AccessToken == "" {
		tok.AccessToken = ut.Token
	}
	if tok.AccessToken == "" && tok.RefreshToken == "" {
		return nil, errors.New("parse user token: no access or refresh token")
	}

	// An unknown expiry would make the token look valid forever, so force a
	// refresh instead.
	tok.Expiry = time.Unix(1, 0)
	if ut.Expiry != "" {
		for _, layout := range []string{time.RFC3339Nano, "2006-01-02T15:04:05.999999"} {
			if t, err := time.Parse(layout, ut.Expiry); err == nil {
				tok.Expiry = t
				break
			}
		}
	}
	return tok, nil
}
