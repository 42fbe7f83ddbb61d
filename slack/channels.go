package slack

import (
	"cmp"
	"context"
	"net/url"
	"slices"
	"strconv"
	"strings"
)

// ChannelType is Slack's conversation type.
type ChannelType string

const (
	PublicChannel  ChannelType = "public_channel"
	PrivateChannel ChannelType = "private_channel"
	DirectMessage  ChannelType = "im"
	GroupMessage   ChannelType = "mpim"
)

// Channel is one conversation as returned by conversations.list.
type Channel struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	User       string `json:"user,omitempty"`
	Created    int64  `json:"created"`
	IsArchived bool   `json:"is_archived"`
	IsMember   bool   `json:"is_member"`
	IsPrivate  bool   `json:"is_private"`
	IsIM       bool   `json:"is_im"`
	IsMPIM     bool   `json:"is_mpim"`
	NumMembers int    `json:"num_members"`
	Topic      struct {
		Value string `json:"value"`
	} `json:"topic"`
	Purpose struct {
		Value string `json:"value"`
	} `json:"purpose"`
}

// Type derives the conversation type from the is_* flags.
func (ch Channel) Type() ChannelType {
	switch {
	case ch.IsIM:
		return DirectMessage
	case ch.IsMPIM:
		return GroupMessage
	case ch.IsPrivate:
		return PrivateChannel
	default:
		return PublicChannel
	}
}

// DisplayName is #name for channels and the other party for DMs.
func (ch Channel) DisplayName() string {
	switch ch.Type() {
	case DirectMessage:
		if ch.User != "" {
			return "DM with <@" + ch.User + ">"
		}
		return "direct message"
	case GroupMessage:
		return cmp.Or(ch.Name, "group message")
	default:
		return "#" + cmp.Or(ch.Name, "unnamed")
	}
}

// ListOptions selects which conversations Channels returns.
type ListOptions struct {
	// IncludePrivate adds private channels, DMs and group DMs.
	IncludePrivate  bool
	IncludeArchived bool
}

func (o ListOptions) types() []ChannelType {
	if o.IncludePrivate {
		return []ChannelType{PublicChannel, PrivateChannel, DirectMessage, GroupMessage}
	}
	return []ChannelType{PublicChannel}
}

// Channels lists every conversation the token can see, grouped by type
// and sorted by name within a type.
func (c *Client) Channels(ctx context.Context, opts ListOptions) ([]Channel, error) {
	types := make([]string, 0, 4)
	for _, t := range opts.types() {
		types = append(types, string(t))
	}
	params := url.Values{}
	params.Set("types", strings.Join(types, ","))
	params.Set("exclude_archived", strconv.FormatBool(!opts.IncludeArchived))

	var channels []Channel
	err := c.pages(ctx, "conversations.list", params, func(env *envelope) {
		channels = append(channels, env.Channels...)
	})
	if err != nil {
		return nil, err
	}
	order := opts.types()
	slices.SortStableFunc(channels, func(a, b Channel) int {
		return cmp.Or(
			cmp.Compare(slices.Index(order, a.Type()), slices.Index(order, b.Type())),
			cmp.Compare(strings.ToLower(a.DisplayName()), strings.ToLower(b.DisplayName())),
		)
	})
	return channels, nil
}
