package services

import (
	"fmt"
	"time"

	"github.com/brnikita/refine-supabase-apps-builder/pkg/constants"
)

// ChatBlock renders records as a message thread.
type ChatBlock struct{}

func (b *ChatBlock) Type() constants.BlockType {
	return constants.BlockTypeChat
}

func (b *ChatBlock) Render(in *RenderInput) (map[string]interface{}, error) {
	props := in.Block.Props
	messageField := GetConfigString(props, "messageField")
	if messageField == "" {
		return nil, fmt.Errorf("chat block %s requires props.messageField", in.Block.ID)
	}
	senderField := GetConfigString(props, "senderNameField")
	timestampField := GetConfigString(props, "timestampField")

	messages := make([]map[string]interface{}, 0, len(in.Records))
	for _, rec := range in.Records {
		msg := map[string]interface{}{
			"id":      rec.Get(constants.FieldID),
			"message": rec.Get(messageField),
		}
		if senderField != "" {
			msg["sender"] = rec.Get(senderField)
		}
		if timestampField != "" {
			if ts, ok := parseRecordTime(rec.Get(timestampField)); ok {
				msg["timestamp"] = ts.Format(time.RFC3339)
			}
		}
		messages = append(messages, msg)
	}

	return map[string]interface{}{
		"messages":   messages,
		"allowReply": GetConfigBool(props, "allowReply"),
	}, nil
}
