package session

import (
	"context"
	"strings"

	"github.com/danmuck/gatewayctl/internal/logging"
	"github.com/danmuck/gatewayctl/internal/protocol"
)

// JoinVoiceChannel asks the gateway to move this user into channelID of
// guildID. An empty channelID leaves voice.
func (s *Session) JoinVoiceChannel(ctx context.Context, guildID, channelID string) error {
	var channel *string
	if strings.TrimSpace(channelID) != "" {
		channel = &channelID
	}
	return s.sendVoiceState(ctx, guildID, channel)
}

func (s *Session) LeaveVoiceChannel(ctx context.Context, guildID string) error {
	return s.sendVoiceState(ctx, guildID, nil)
}

func (s *Session) sendVoiceState(ctx context.Context, guildID string, channelID *string) error {
	if strings.TrimSpace(guildID) == "" {
		return ErrGuildIDRequired
	}
	err := s.send(ctx, protocol.OpVoiceStateUpdate, protocol.VoiceStateUpdate{
		GuildID:   guildID,
		ChannelID: channelID,
	})
	if err != nil {
		return err
	}
	logging.Debugf("session.Session.sendVoiceState guild_id=%s joined=%t", guildID, channelID != nil)
	return nil
}
