package slack

import (
	"cmp"
	"context"
	"encoding/json"
	"fmt"
	"math"
	"net/url"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/kbukum/samuelizer/logger"
	"github.com/kbukum/samuelizer/storage"
)

// Message is one channel message with mentions already resolved.
type Message struct {
	TS         string `json:"ts"`
	User       string `json:"user,omitempty"`
	UserName   string `json:"user_name,omitempty"`
	BotID      string `json:"bot_id,omitempty"`
	Subtype    string `json:"subtype,omitempty"`
	Text       string `json:"text"`
	ThreadTS   string `json:"thread_ts,omitempty"`
	ReplyCount int    `json:"reply_count,omitempty"`
}

// Time parses the message timestamp. Malformed values give the zero time.
func (m Message) Time() time.Time {
	f, err := strconv.ParseFloat(m.TS, 64)
	if err != nil {
		return time.Time{}
	}
	sec, frac := math.Modf(f)
	return time.Unix(int64(sec), int64(frac*1e9)).UTC()
}

// HistoryOptions bounds a download. Start is inclusive; End includes the
// whole day it falls on.
type HistoryOptions struct {
	Start time.Time
	End   time.Time
}

func (o HistoryOptions) params(channel string) url.Values {
	params := url.Values{"channel": {channel}}
	if !o.Start.IsZero() {
		params.Set("oldest", strconv.FormatInt(o.Start.Unix(), 10))
	}
	if !o.End.IsZero() {
		params.Set("latest", strconv.FormatInt(o.End.AddDate(0, 0, 1).Unix(), 10))
	}
	return params
}

// History downloads every message of channel in the window, oldest first,
// with user names and mentions resolved.
func (c *Client) History(ctx context.Context, channel string, opts HistoryOptions) ([]Message, error) {
	var msgs []Message
	err := c.pages(ctx, "conversations.history", opts.params(channel), func(env *envelope) {
		msgs = append(msgs, env.Messages...)
		c.log.Info("downloaded messages", logger.Fields("channel", channel, "count", len(env.Messages)))
	})
	if err != nil {
		return nil, err
	}
	for i := range msgs {
		if msgs[i].User != "" {
			msgs[i].UserName = c.UserName(ctx, msgs[i].User)
		}
		msgs[i].Text = c.ResolveMentions(ctx, msgs[i].Text)
	}
	slices.SortStableFunc(msgs, func(a, b Message) int { return a.Time().Compare(b.Time()) })
	return msgs, nil
}

// Export is a downloaded channel as written to disk.
type Export struct {
	ChannelID    string     `json:"channel_id"`
	DownloadDate string     `json:"download_date"`
	StartDate    *time.Time `json:"start_date"`
	EndDate      *time.Time `json:"end_date"`
	MessageCount int        `json:"message_count"`
	Messages     []Message  `json:"messages"`
}

// NewExport stamps msgs with the download time.
func NewExport(channel string, opts HistoryOptions, msgs []Message, at time.Time) Export {
	e := Export{
		ChannelID:    channel,
		DownloadDate: at.Format("20060102_150405"),
		MessageCount: len(msgs),
		Messages:     msgs,
	}
	if !opts.Start.IsZero() {
		e.StartDate = &opts.Start
	}
	if !opts.End.IsZero() {
		e.EndDate = &opts.End
	}
	return e
}

// FileName is slack_messages_<channel>[_from_<d>][_to_<d>]_<stamp>.json.
func (e Export) FileName() string {
	var b strings.Builder
	b.WriteString("slack_messages_" + e.ChannelID)
	if e.StartDate != nil {
		b.WriteString("_from_" + e.StartDate.Format("20060102"))
	}
	if e.EndDate != nil {
		b.WriteString("_to_" + e.EndDate.Format("20060102"))
	}
	b.WriteString("_" + e.DownloadDate + ".json")
	return b.String()
}

// Save writes the export under its FileName and returns that name.
func (e Export) Save(ctx context.Context, store storage.Storage) (string, error) {
	data, err := json.MarshalIndent(e, "", "  ")
	if err != nil {
		return "", err
	}
	name := e.FileName()
	if err := storage.WriteDocument(ctx, store, name, data); err != nil {
		return "", fmt.Errorf("save slack export: %w", err)
	}
	return name, nil
}

// Transcript renders the messages as "name: text" lines for analysis.
// Messages without text are skipped.
func (e Export) Transcript() string {
	var b strings.Builder
	for _, m := range e.Messages {
		text := strings.TrimSpace(m.Text)
		if text == "" {
			continue
		}
		fmt.Fprintf(&b, "%s: %s\n", cmp.Or(m.UserName, m.User, m.BotID, "unknown_user"), text)
	}
	return b.String()
}
