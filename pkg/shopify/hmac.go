package shopify

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"net/url"
	"sort"
	"strings"
)

// VerifyOAuthHMAC checks the hmac parameter of an OAuth callback or embedded app launch
func VerifyOAuthHMAC(query url.Values, secret string) bool {
	given := query.Get("hmac")
	if given == "" {
		return false
	}
	return hexEqual(sign(secret, oauthMessage(query)), given)
}

// VerifyProxySignature checks the signature parameter Shopify adds to app proxy requests
func VerifyProxySignature(query url.Values, secret string) bool {
	given := query.Get("signature")
	if given == "" {
		return false
	}
	return hexEqual(sign(secret, proxyMessage(query)), given)
}

// VerifyWebhook checks X-Shopify-Hmac-Sha256 against the raw body
func VerifyWebhook(body []byte, header, secret string) bool {
	if header == "" {
		return false
	}
	given, err := base64.StdEncoding.DecodeString(header)
	if err != nil {
		return false
	}
	return hmac.Equal(sign(secret, string(body)), given)
}

// SignOAuthQuery returns the hex hmac Shopify would attach to query
func SignOAuthQuery(query url.Values, secret string) string {
	return hex.EncodeToString(sign(secret, oauthMessage(query)))
}

// SignProxyQuery returns the hex signature Shopify would attach to an app proxy query
func SignProxyQuery(query url.Values, secret string) string {
	return hex.EncodeToString(sign(secret, proxyMessage(query)))
}

// SignWebhook returns the base64 HMAC Shopify would send for body
func SignWebhook(body []byte, secret string) string {
	return base64.StdEncoding.EncodeToString(sign(secret, string(body)))
}

// oauthMessage is "k=v&k=v" over sorted keys without hmac and signature
func oauthMessage(query url.Values) string {
	keys := sortedKeys(query, "hmac", "signature")
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+"="+strings.Join(query[k], ","))
	}
	return strings.Join(parts, "&")
}

// proxyMessage is "k=vk=v" over sorted keys without signature
func proxyMessage(query url.Values) string {
	var b strings.Builder
	for _, k := range sortedKeys(query, "signature") {
		b.WriteString(k)
		b.WriteString("=")
		b.WriteString(strings.Join(query[k], ","))
	}
	return b.String()
}

func sortedKeys(query url.Values, skip ...string) []string {
	keys := make([]string, 0, len(query))
outer:
	for k := range query {
		for _, s := range skip {
			if k == s {
				continue outer
			}
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func sign(secret, message string) []byte {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(message))
	return mac.Sum(nil)
}

func hexEqual(expected []byte, given string) bool {
	decoded, err := hex.DecodeString(given)
	if err != nil {
		return false
	}
	return hmac.Equal(expected, decoded)
}
