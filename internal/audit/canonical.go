package audit

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/vendora-app/vendora-backend/pkg/db/models"
)

// genesisHash is the prev_hash of the first event in the chain.
const genesisHash = "0000000000000000000000000000000000000000000000000000000000000000"

// computeHash produces the event's self hash over every stored field except
// the hash itself. The payload is canonical JSON with sorted keys, so the
// same stored row always re-hashes to the same value regardless of map
// iteration order or the JSON the caller originally sent.
func computeHash(event *models.AuditEvent) (string, error) {
	payload := map[string]any{
		"id":          event.ID.String(),
		"occurred_at": event.OccurredAt.UTC().Format(time.RFC3339Nano),
		"actor_id":    event.ActorID.String(),
		"actor_type":  string(event.ActorType),
		"scope":       event.Scope,
		"action":      event.Action,
		"target_type": event.TargetType,
		"target_id":   event.TargetID,
		"severity":    string(event.Severity),
		"prev_hash":   event.PrevHash,
	}
	if event.RequestID != nil {
		payload["request_id"] = *event.RequestID
	}
	if event.Reason != nil {
		payload["reason"] = *event.Reason
	}
	if len(event.Tags) > 0 {
		payload["tags"] = []string(event.Tags)
	}

	for key, raw := range map[string]json.RawMessage{
		"diff_before": event.DiffBefore,
		"diff_after":  event.DiffAfter,
		"metadata":    event.Metadata,
	} {
		if len(raw) == 0 {
			continue
		}
		var value any
		if err := json.Unmarshal(raw, &value); err != nil {
			return "", fmt.Errorf("canonicalizing %s: %w", key, err)
		}
		payload[key] = value
	}

	canonical, err := marshalCanonical(payload)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(canonical)
	return hex.EncodeToString(sum[:]), nil
}

// marshalCanonical renders a value as JSON with object keys in sorted order at
// every depth.
func marshalCanonical(value any) ([]byte, error) {
	switch v := value.(type) {
	case map[string]any:
		keys := make([]string, 0, len(v))
		for key := range v {
			keys = append(keys, key)
		}
		sort.Strings(keys)

		out := []byte{'{'}
		for i, key := range keys {
			if i > 0 {
				out = append(out, ',')
			}
			encodedKey, err := json.Marshal(key)
			if err != nil {
				return nil, err
			}
			out = append(out, encodedKey...)
			out = append(out, ':')
			encodedValue, err := marshalCanonical(v[key])
			if err != nil {
				return nil, err
			}
			out = append(out, encodedValue...)
		}
		return append(out, '}'), nil
	case []any:
		out := []byte{'['}
		for i, item := range v {
			if i > 0 {
				out = append(out, ',')
			}
			encoded, err := marshalCanonical(item)
			if err != nil {
				return nil, err
			}
			out = append(out, encoded...)
		}
		return append(out, ']'), nil
	default:
		return json.Marshal(v)
	}
}
