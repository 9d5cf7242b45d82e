// Package sink delivers sales to a Discord channel, or to the log when no channel is configured
package sink

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/screwyprof/sortition/notifier"
)

const (
	embedColor  = 0x0099ff
	authorName  = "OpenSea Bot"
	authorURL   = "https://github.com/sbauch/opensea-discord-bot"
	footerText  = "Sold on OpenSea"
	openSeaLogo = "https://files.readme.io/566c72b-opensea-logomark-full-colored.png"
)

var (
	ErrChannelUnavailable = errors.New("discord channel unavailable")
	ErrDeliveryFailed     = errors.New("discord delivery failed")
)

// Sender is the part of discordgo.Session the Discord sink uses
type Sender interface {
	ChannelMessageSendEmbed(channelID string, embed *discordgo.MessageEmbed, options ...discordgo.RequestOption) (*discordgo.Message, error)
}

// Discord posts every sale as an embed to one channel
type Discord struct {
	sender    Sender
	channelID string
}

// NewDiscord builds a Discord sink posting to channelID
func NewDiscord(sender Sender, channelID string) *Discord {
	return &Discord{sender: sender, channelID: channelID}
}

// Send posts sale as an embed; failures wrap ErrDeliveryFailed
func (d *Discord) Send(ctx context.Context, sale notifier.Sale) error {
	if _, err := d.sender.ChannelMessageSendEmbed(d.channelID, Embed(sale), discordgo.WithContext(ctx)); err != nil {
		return fmt.Errorf("%w: %w", ErrDeliveryFailed, err)
	}
	return nil
}

// Embed renders sale as a rich message
func Embed(sale notifier.Sale) *discordgo.MessageEmbed {
	embed := &discordgo.MessageEmbed{
		Title: sale.Title(),
		URL:   sale.URL,
		Color: embedColor,
		Author: &discordgo.MessageEmbedAuthor{
			Name:    authorName,
			URL:     authorURL,
			IconURL: openSeaLogo,
		},
		Fields: []*discordgo.MessageEmbedField{
			{Name: "Name", Value: sale.Name},
			{Name: "Amount", Value: sale.AmountText()},
			{Name: "Buyer", Value: sale.Buyer},
			{Name: "Seller", Value: sale.Seller},
		},
		Footer: &discordgo.MessageEmbedFooter{
			Text:    footerText,
			IconURL: openSeaLogo,
		},
	}
	if sale.CollectionImageURL != "" {
		embed.Thumbnail = &discordgo.MessageEmbedThumbnail{URL: sale.CollectionImageURL}
	}
	if sale.ImageURL != "" {
		embed.Image = &discordgo.MessageEmbedImage{URL: sale.ImageURL}
	}
	if !sale.Timestamp.IsZero() {
		embed.Timestamp = sale.Timestamp.UTC().Format(time.RFC3339)
	}
	return embed
}

// Log writes every sale to a structured log
type Log struct {
	log *slog.Logger
}

// NewLog builds a sink writing to log
func NewLog(log *slog.Logger) *Log {
	return &Log{log: log}
}

// Send logs sale at info level and never fails
func (l *Log) Send(ctx context.Context, sale notifier.Sale) error {
	l.log.InfoContext(ctx, sale.Title(),
		slog.String("name", sale.Name),
		slog.String("url", sale.URL),
		slog.String("imageURL", sale.ImageURL),
		slog.String("amount", sale.AmountText()),
		slog.String("buyer", sale.Buyer),
		slog.String("seller", sale.Seller),
		slog.Time("timestamp", sale.Timestamp),
	)
	return nil
}

// New picks Discord when both token and channel are set and the log otherwise.
// The Discord channel is looked up once so a bad ID fails before any sale is sent.
func New(ctx context.Context, token, channelID string, log *slog.Logger) (notifier.Sink, error) {
	if token == "" || channelID == "" {
		log.WarnContext(ctx, "Discord API keys not set, logging sales instead")
		return NewLog(log), nil
	}

	session, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrChannelUnavailable, err)
	}

	if _, err := session.Channel(channelID, discordgo.WithContext(ctx)); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrChannelUnavailable, channelID, err)
	}

	return NewDiscord(session, channelID), nil
}
