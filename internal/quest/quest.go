// Package quest holds the quest catalogue and the pure rules that turn a quest
// submission into a rewardable completion.
package quest

import (
	"crypto/sha256"
	"encoding/hex"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"questHubAPI/internal/apperr"
)

type Kind string

const (
	KindGoogleVerify  Kind = "google_verify"
	KindDiscordVerify Kind = "discord_verify"
	KindTwitterVerify Kind = "twitter_verify"
	KindWalletLink    Kind = "wallet_link"
	KindTweetShare    Kind = "tweet_share"
	KindReferral      Kind = "referral"
)

type Period string

const (
	PeriodOnce        Period = "once"
	PeriodDaily       Period = "daily"
	PeriodPerReferral Period = "per_referral"
)

type Definition struct {
	Kind        Kind   `json:"kind"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Period      Period `json:"period"`
	XP          int64  `json:"xp"`
	Tokens      int64  `json:"tokens"`
}

var catalogue = []Definition{
	{KindGoogleVerify, "Verify Google", "Connect and verify your Google account", PeriodOnce, 50, 10},
	{KindDiscordVerify, "Join Discord", "Verify your Discord account", PeriodOnce, 50, 10},
	{KindTwitterVerify, "Follow on X", "Verify your Twitter/X account", PeriodOnce, 50, 10},
	{KindWalletLink, "Link Wallet", "Link an EVM wallet address", PeriodOnce, 100, 25},
	{KindTweetShare, "Share a Tweet", "Share today's post on Twitter/X", PeriodDaily, 20, 5},
	{KindReferral, "Invite a Friend", "Reward for every friend who joins with your code", PeriodPerReferral, 75, 20},
}

func Catalogue() []Definition {
	out := make([]Definition, len(catalogue))
	copy(out, catalogue)
	return out
}

func Lookup(kind Kind) (Definition, error) {
	for _, d := range catalogue {
		if d.Kind == kind {
			return d, nil
		}
	}
	return Definition{}, apperr.ErrUnknownQuest
}

// Submission is what a user sends to complete a quest. Only the field the quest
// needs is read.
type Submission struct {
	Handle        string `json:"handle,omitempty"`
	WalletAddress string `json:"walletAddress,omitempty"`
	TweetURL      string `json:"tweetUrl,omitempty"`
	ReferralCode  string `json:"referralCode,omitempty"`
}

// Completion is the immutable record of a rewarded quest.
//
// UserKey is the user credited with the reward. For referrals that is the
// referrer, and PeriodKey is the referred user's key.
type Completion struct {
	ID          uuid.UUID `json:"id" db:"id"`
	UserKey     string    `json:"userKey" db:"user_key"`
	Quest       Kind      `json:"quest" db:"quest"`
	PeriodKey   string    `json:"periodKey" db:"period_key"`
	Detail      string    `json:"detail" db:"detail"`
	XP          int64     `json:"xp" db:"xp"`
	Tokens      int64     `json:"tokens" db:"tokens"`
	CompletedAt time.Time `json:"completedAt" db:"completed_at"`
}

// PeriodKey is the uniqueness bucket a completion of d at now falls into.
func PeriodKey(d Definition, now time.Time) string {
	switch d.Period {
	case PeriodDaily:
		return now.UTC().Format(time.DateOnly)
	default:
		return ""
	}
}

// Evaluate validates a submission by userKey and builds the completion it earns.
// Referral submissions carry the referrer code; the caller resolves it to the
// referrer key and passes it as referrerKey.
func Evaluate(kind Kind, userKey, referrerKey string, sub Submission, now time.Time) (*Completion, error) {
	if userKey == "" {
		return nil, apperr.ErrUnauthenticated
	}

	def, err := Lookup(kind)
	if err != nil {
		return nil, err
	}

	c := &Completion{
		ID:          uuid.New(),
		UserKey:     userKey,
		Quest:       kind,
		PeriodKey:   PeriodKey(def, now),
		XP:          def.XP,
		Tokens:      def.Tokens,
		CompletedAt: now,
	}

	switch kind {
	case KindGoogleVerify, KindDiscordVerify, KindTwitterVerify:
		handle, err := normalizeHandle(sub.Handle)
		if err != nil {
			return nil, err
		}
		c.Detail = handle

	case KindWalletLink:
		addr, err := NormalizeWalletAddress(sub.WalletAddress)
		if err != nil {
			return nil, err
		}
		c.Detail = addr

	case KindTweetShare:
		tweet, err := normalizeTweetURL(sub.TweetURL)
		if err != nil {
			return nil, err
		}
		c.Detail = tweet

	case KindReferral:
		if referrerKey == "" {
			return nil, apperr.Invalid("referral code not recognised")
		}
		if referrerKey == userKey {
			return nil, apperr.Invalid("cannot refer yourself")
		}
		c.UserKey = referrerKey
		c.PeriodKey = userKey
		c.Detail = userKey
	}

	return c, nil
}

// ReferralCode is the public code a user shares to refer others. attempt 0 is
// derived from the key alone; later attempts salt it, for when an earlier code
// is already taken by another user.
func ReferralCode(userKey string, attempt int) string {
	seed := userKey
	if attempt > 0 {
		seed = userKey + "#" + strconv.Itoa(attempt)
	}
	sum := sha256.Sum256([]byte(seed))
	return hex.EncodeToString(sum[:])[:16]
}

var handlePattern = regexp.MustCompile(`^[A-Za-z0-9_.#@-]{2,64}$`)

func normalizeHandle(h string) (string, error) {
	h = strings.TrimSpace(h)
	if !handlePattern.MatchString(h) {
		return "", apperr.Invalid("account handle is missing or malformed")
	}
	return strings.TrimPrefix(h, "@"), nil
}

var tweetPath = regexp.MustCompile(`^/[A-Za-z0-9_]{1,15}/status/[0-9]+/?$`)

func normalizeTweetURL(raw string) (string, error) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil || u.Scheme != "https" {
		return "", apperr.Invalid("tweet url must be an https link")
	}

	host := strings.TrimPrefix(strings.ToLower(u.Host), "www.")
	if host != "twitter.com" && host != "x.com" && host != "mobile.twitter.com" {
		return "", apperr.Invalid("tweet url must point to twitter.com or x.com")
	}
	if !tweetPath.MatchString(u.Path) {
		return "", apperr.Invalid("tweet url must link to a single post")
	}

	return "https://x.com" + strings.TrimSuffix(u.Path, "/"), nil
}
