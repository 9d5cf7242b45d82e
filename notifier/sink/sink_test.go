package sink_test

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/screwyprof/sortition/notifier"
	"github.com/screwyprof/sortition/notifier/sink"
)

func TestEmbed(t *testing.T) {
	t.Parallel()

	t.Run("it renders the sale", func(t *testing.T) {
		t.Parallel()

		// Act
		embed := sink.Embed(pixelSale())

		// Assert
		assert.Equal(t, "Pixel #42 sold!", embed.Title)
		assert.Equal(t, "https://opensea.io/assets/0xabc/42", embed.URL)
		assert.Equal(t, 0x0099ff, embed.Color)
		assert.Equal(t, "OpenSea Bot", embed.Author.Name)
		assert.Equal(t, "Sold on OpenSea", embed.Footer.Text)
		assert.Equal(t, "https://img.example/collection.png", embed.Thumbnail.URL)
		assert.Equal(t, "https://img.example/42.png", embed.Image.URL)
		assert.Equal(t, "2022-01-15T10:30:00Z", embed.Timestamp)

		require.Len(t, embed.Fields, 4)
		assert.Equal(t, []string{"Name", "Amount", "Buyer", "Seller"}, fieldNames(embed))
		assert.Equal(t, "1.5Ξ", embed.Fields[1].Value)
		assert.Equal(t, "0xbuyer", embed.Fields[2].Value)
	})

	t.Run("it leaves out missing images", func(t *testing.T) {
		t.Parallel()

		// Arrange
		sale := pixelSale()
		sale.ImageURL, sale.CollectionImageURL = "", ""

		// Act
		embed := sink.Embed(sale)

		// Assert
		assert.Nil(t, embed.Image)
		assert.Nil(t, embed.Thumbnail)
	})
}

func TestDiscord(t *testing.T) {
	t.Parallel()

	t.Run("it posts the embed to the channel", func(t *testing.T) {
		t.Parallel()

		// Arrange
		sender := &fakeSender{}
		discord := sink.NewDiscord(sender, "1234")

		// Act
		err := discord.Send(context.Background(), pixelSale())

		// Assert
		require.NoError(t, err)
		assert.Equal(t, "1234", sender.channelID)
		require.NotNil(t, sender.embed)
		assert.Equal(t, "Pixel #42 sold!", sender.embed.Title)
		assert.Len(t, sender.options, 1, "the request carries the context")
	})

	t.Run("it wraps delivery failures", func(t *testing.T) {
		t.Parallel()

		// Arrange
		discord := sink.NewDiscord(&fakeSender{err: errors.New("HTTP 403 Forbidden")}, "1234")

		// Act
		err := discord.Send(context.Background(), pixelSale())

		// Assert
		assert.ErrorIs(t, err, sink.ErrDeliveryFailed)
	})
}

func TestLog(t *testing.T) {
	t.Parallel()

	t.Run("it logs the sale", func(t *testing.T) {
		t.Parallel()

		// Arrange
		var buf bytes.Buffer
		logSink := sink.NewLog(slog.New(slog.NewJSONHandler(&buf, nil)))

		// Act
		err := logSink.Send(context.Background(), pixelSale())

		// Assert
		require.NoError(t, err)
		assert.Contains(t, buf.String(), `"msg":"Pixel #42 sold!"`)
		assert.Contains(t, buf.String(), `"amount":"1.5Ξ"`)
		assert.Contains(t, buf.String(), `"seller":"0xseller"`)
	})
}

func TestNew(t *testing.T) {
	t.Parallel()

	t.Run("it falls back to the log without credentials", func(t *testing.T) {
		t.Parallel()

		// Arrange
		var buf bytes.Buffer
		log := slog.New(slog.NewJSONHandler(&buf, nil))

		for _, creds := range [][2]string{{"", ""}, {"token", ""}, {"", "1234"}} {
			// Act
			s, err := sink.New(context.Background(), creds[0], creds[1], log)

			// Assert
			require.NoError(t, err)
			assert.IsType(t, &sink.Log{}, s)
		}
		assert.Contains(t, buf.String(), "Discord API keys not set")
	})
}

// Test helpers

func pixelSale() notifier.Sale {
	return notifier.Sale{
		Name:               "Pixel #42",
		URL:                "https://opensea.io/assets/0xabc/42",
		ImageURL:           "https://img.example/42.png",
		CollectionImageURL: "https://img.example/collection.png",
		Amount:             decimal.RequireFromString("1.5"),
		Buyer:              "0xbuyer",
		Seller:             "0xseller",
		Timestamp:          time.Date(2022, 1, 15, 10, 30, 0, 0, time.UTC),
	}
}

func fieldNames(embed *discordgo.MessageEmbed) []string {
	names := make([]string, len(embed.Fields))
	for i, f := range embed.Fields {
		names[i] = f.Name
	}
	return names
}

type fakeSender struct {
	err       error
	channelID string
	embed     *discordgo.MessageEmbed
	options   []discordgo.RequestOption
}

func (f *fakeSender) ChannelMessageSendEmbed(channelID string, embed *discordgo.MessageEmbed, options ...discordgo.RequestOption) (*discordgo.Message, error) {
	f.channelID, f.embed, f.options = channelID, embed, options
	if f.err != nil {
		return nil, f.err
	}
	return &discordgo.Message{ChannelID: channelID}, nil
}
