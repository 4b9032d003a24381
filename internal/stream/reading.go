package stream

import (
	"fmt"
	"time"

	"google.golang.org/protobuf/types/known/structpb"

	"github.com/banshee-data/angle.report/internal/angles"
	"github.com/banshee-data/angle.report/internal/session"
)

// Reading is one frame outcome as carried on the wire.
type Reading struct {
	State     string
	Reason    string
	Part      string
	HasSample bool
	Index     int
	Time      time.Time
	Sample    angles.Sample
}

// FromUpdate converts a session update.
func FromUpdate(u session.Update) Reading {
	r := Reading{State: u.Result.State.String()}
	if !u.Result.Visible() {
		r.Reason = u.Result.Reason.String()
		r.Part = string(u.Result.Part)
	}
	if u.Entry != nil {
		r.HasSample = true
		r.Index = u.Entry.Index
		r.Time = u.Entry.Time
		r.Sample = u.Entry.Sample
	}
	return r
}

// FromEntry converts a history entry, which is always Visible.
func FromEntry(e session.Entry) Reading {
	return Reading{
		State:     angles.Visible.String(),
		HasSample: true,
		Index:     e.Index,
		Time:      e.Time,
		Sample:    e.Sample,
	}
}

// Encode packs the reading into a Struct.
func (r Reading) Encode() (*structpb.Struct, error) {
	fields := map[string]interface{}{
		"state": r.State,
	}
	if r.Reason != "" {
		fields["reason"] = r.Reason
	}
	if r.Part != "" {
		fields["part"] = r.Part
	}
	if r.HasSample {
		fields["index"] = r.Index
		fields["time"] = r.Time.UTC().Format(time.RFC3339Nano)
		for i, j := range angles.Joints {
			fields[j.Name] = r.Sample.Values()[i]
		}
	}
	return structpb.NewStruct(fields)
}

// DecodeReading unpacks a Struct produced by Encode.
func DecodeReading(st *structpb.Struct) (Reading, error) {
	m := st.AsMap()
	var r Reading
	r.State, _ = m["state"].(string)
	if r.State == "" {
		return r, fmt.Errorf("reading has no state")
	}
	r.Reason, _ = m["reason"].(string)
	r.Part, _ = m["part"].(string)

	idx, ok := m["index"].(float64)
	if !ok {
		return r, nil
	}
	r.HasSample = true
	r.Index = int(idx)
	if ts, ok := m["time"].(string); ok {
		t, err := time.Parse(time.RFC3339Nano, ts)
		if err != nil {
			return r, fmt.Errorf("invalid time %q: %w", ts, err)
		}
		r.Time = t
	}
	var v [4]float64
	for i, j := range angles.Joints {
		f, ok := m[j.Name].(float64)
		if !ok {
			return r, fmt.Errorf("reading is missing %s", j.Name)
		}
		v[i] = f
	}
	r.Sample = angles.Sample{LeftElbow: v[0], RightElbow: v[1], LeftKnee: v[2], RightKnee: v[3]}
	return r, nil
}
