package wire

import (
	"bytes"
	"compress/gzip"
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/yndnr/tablesync-go/internal/core/domain"
)

// Magic bytes identify encoded snapshots (DS-0301).
var magicBytes = []byte("TSYNSNAP")

// Payload modes, one byte following the magic.
const (
	modeJSON byte = iota
	modeJSONGzip
	modeProto
	modeProtoGzip
)

// maxEncodedSize bounds decode input so a corrupt length cannot make us
// allocate without limit.
const maxEncodedSize = 64 << 20

// EncodeSnapshot serializes a snapshot into the mode-tagged wire form,
// picking the smallest of the candidate encodings.
func EncodeSnapshot(snapshot *domain.StateSnapshot) ([]byte, error) {
	if snapshot == nil {
		return nil, domain.ErrMissingArgument.WithDetails("snapshot is required")
	}

	raw, err := json.Marshal(snapshot)
	if err != nil {
		return nil, domain.ErrMalformedSnapshot.WithCause(err)
	}

	best, bestMode := raw, modeJSON
	if gz, err := gzipBytes(raw); err == nil && len(gz) < len(best) {
		best, bestMode = gz, modeJSONGzip
	}

	// Protobuf is attempted opportunistically. Trees that structpb cannot
	// express (such as absent-sentinel leaves) simply fall back to JSON.
	if pb, err := marshalProto(snapshot); err == nil {
		if len(pb) < len(best) {
			best, bestMode = pb, modeProto
		}
		if gz, err := gzipBytes(pb); err == nil && len(gz) < len(best) {
			best, bestMode = gz, modeProtoGzip
		}
	}

	out := make([]byte, 0, len(magicBytes)+1+len(best))
	out = append(out, magicBytes...)
	out = append(out, bestMode)
	out = append(out, best...)
	return out, nil
}

// DecodeSnapshot parses the wire form back into a snapshot. The content
// hash is recomputed from the decoded trees; a mismatch with the embedded
// hash means the payload does not represent the state it claims to and is
// rejected as malformed.
func DecodeSnapshot(data []byte) (*domain.StateSnapshot, error) {
	if len(data) < len(magicBytes)+1 {
		return nil, domain.ErrMalformedSnapshot.WithDetails("encoded snapshot is truncated")
	}
	if !bytes.Equal(data[:len(magicBytes)], magicBytes) {
		return nil, domain.ErrMalformedSnapshot.WithDetails("encoded snapshot has invalid magic bytes")
	}
	mode := data[len(magicBytes)]
	payload := data[len(magicBytes)+1:]

	var err error
	switch mode {
	case modeJSONGzip, modeProtoGzip:
		payload, err = gunzipBytes(payload)
		if err != nil {
			return nil, domain.ErrMalformedSnapshot.WithCause(err)
		}
	case modeJSON, modeProto:
	default:
		return nil, domain.ErrMalformedSnapshot.WithDetails(
			fmt.Sprintf("unknown snapshot encoding mode %d", mode))
	}

	var snapshot *domain.StateSnapshot
	switch mode {
	case modeJSON, modeJSONGzip:
		snapshot = &domain.StateSnapshot{}
		if err := json.Unmarshal(payload, snapshot); err != nil {
			return nil, domain.ErrMalformedSnapshot.WithCause(err)
		}
	case modeProto, modeProtoGzip:
		snapshot, err = unmarshalProto(payload)
		if err != nil {
			return nil, err
		}
	}

	recomputed := domain.ContentHash(snapshot.SessionState, snapshot.ParticipantStates)
	if recomputed != snapshot.Hash {
		return nil, domain.ErrMalformedSnapshot.WithDetails(
			"content hash " + snapshot.Hash + " does not match decoded state " + recomputed)
	}
	return snapshot, nil
}

func gzipBytes(in []byte) ([]byte, error) {
	var buf bytes.Buffer
	gw := gzip.NewWriter(&buf)
	if _, err := gw.Write(in); err != nil {
		return nil, err
	}
	if err := gw.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func gunzipBytes(in []byte) ([]byte, error) {
	gr, err := gzip.NewReader(bytes.NewReader(in))
	if err != nil {
		return nil, err
	}
	defer gr.Close()
	out, err := io.ReadAll(io.LimitReader(gr, maxEncodedSize))
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Version and timestamp travel as decimal strings in the protobuf form;
// structpb numbers are float64 and would round large values.
func marshalProto(snapshot *domain.StateSnapshot) ([]byte, error) {
	// The absent sentinel has no structpb representation; converting it to
	// null would change the content hash, so such trees stay on JSON.
	if containsAbsent(snapshot.SessionState) {
		return nil, domain.ErrMalformedSnapshot.WithDetails("absent value in session state")
	}
	participants := make(map[string]any, len(snapshot.ParticipantStates))
	for id, state := range snapshot.ParticipantStates {
		if containsAbsent(state) {
			return nil, domain.ErrMalformedSnapshot.WithDetails("absent value in participant state")
		}
		participants[id] = state.Interface()
	}
	st, err := structpb.NewStruct(map[string]any{
		"version":           strconv.FormatUint(snapshot.Version, 10),
		"hash":              snapshot.Hash,
		"timestamp":         strconv.FormatInt(snapshot.Timestamp, 10),
		"sessionState":      snapshot.SessionState.Interface(),
		"participantStates": participants,
	})
	if err != nil {
		return nil, err
	}
	return proto.Marshal(st)
}

func unmarshalProto(payload []byte) (*domain.StateSnapshot, error) {
	st := &structpb.Struct{}
	if err := proto.Unmarshal(payload, st); err != nil {
		return nil, domain.ErrMalformedSnapshot.WithCause(err)
	}
	fields := st.AsMap()

	version, err := protoUint(fields, "version")
	if err != nil {
		return nil, err
	}
	timestamp, err := protoInt(fields, "timestamp")
	if err != nil {
		return nil, err
	}
	hash, _ := fields["hash"].(string)

	sessionState, err := domain.FromAny(fields["sessionState"])
	if err != nil {
		return nil, domain.ErrMalformedSnapshot.WithCause(err)
	}
	participantStates := map[string]*domain.Value{}
	if raw, ok := fields["participantStates"].(map[string]any); ok {
		for id, state := range raw {
			v, err := domain.FromAny(state)
			if err != nil {
				return nil, domain.ErrMalformedSnapshot.WithCause(err)
			}
			participantStates[id] = v
		}
	}
	return &domain.StateSnapshot{
		Version:           version,
		Hash:              hash,
		SessionState:      sessionState,
		ParticipantStates: participantStates,
		Timestamp:         timestamp,
	}, nil
}

func containsAbsent(v *domain.Value) bool {
	if v == nil {
		return false
	}
	switch v.Kind() {
	case domain.KindAbsent:
		return true
	case domain.KindArray:
		for i := 0; i < v.Len(); i++ {
			if containsAbsent(v.Index(i)) {
				return true
			}
		}
	case domain.KindObject:
		for _, key := range v.Keys() {
			child, _ := v.Field(key)
			if containsAbsent(child) {
				return true
			}
		}
	}
	return false
}

func protoUint(fields map[string]any, key string) (uint64, error) {
	s, ok := fields[key].(string)
	if !ok {
		return 0, domain.ErrMalformedSnapshot.WithDetails("missing " + key + " field")
	}
	n, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, domain.ErrMalformedSnapshot.WithCause(err)
	}
	return n, nil
}

func protoInt(fields map[string]any, key string) (int64, error) {
	s, ok := fields[key].(string)
	if !ok {
		return 0, domain.ErrMalformedSnapshot.WithDetails("missing " + key + " field")
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, domain.ErrMalformedSnapshot.WithCause(err)
	}
	return n, nil
}
