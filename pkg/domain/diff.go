package domain

// SnapshotDiff represents the changes between two snapshots.
// Presentation layers use it to redraw only what changed.
type SnapshotDiff struct {
	SessionID string `json:"session_id"`

	Phase   *Phase  `json:"phase,omitempty"`
	NodeKey *string `json:"node_key,omitempty"`

	// Appended holds messages added since the old snapshot.
	Appended []ChatMessage `json:"appended,omitempty"`

	// Annotated holds a message that existed in the old snapshot and has since
	// received its evaluation. Only the last message can be annotated.
	Annotated *ChatMessage `json:"annotated,omitempty"`

	Progress *Progress `json:"progress,omitempty"`
	Report   *Report   `json:"report,omitempty"`
}

// Diff calculates the difference between old and new.
// A nil old snapshot, or one from another session, yields a diff of the
// whole new snapshot. It returns nil when nothing changed.
func Diff(old, new *Snapshot) *SnapshotDiff {
	if new == nil {
		return nil
	}
	if old != nil && old.SessionID != new.SessionID {
		old = nil
	}

	diff := &SnapshotDiff{SessionID: new.SessionID}

	if old == nil || old.Phase != new.Phase {
		p := new.Phase
		diff.Phase = &p
	}
	if new.NodeKey != "" && (old == nil || old.NodeKey != new.NodeKey) {
		k := new.NodeKey
		diff.NodeKey = &k
	}
	if old == nil || old.Progress != new.Progress {
		p := new.Progress
		diff.Progress = &p
	}
	if new.Report != nil && (old == nil || old.Report == nil) {
		diff.Report = new.Report
	}

	diff.Appended, diff.Annotated = diffTranscript(old, new)

	if diff.IsEmpty() {
		return nil
	}
	return diff
}

// diffTranscript relies on the transcript being append-only.
func diffTranscript(old, new *Snapshot) ([]ChatMessage, *ChatMessage) {
	if old == nil {
		if len(new.Transcript) == 0 {
			return nil, nil
		}
		return new.Transcript.Clone(), nil
	}

	oldLen := len(old.Transcript)
	var annotated *ChatMessage
	if oldLen > 0 && oldLen <= len(new.Transcript) {
		before := old.Transcript[oldLen-1]
		after := new.Transcript[oldLen-1]
		if before.Evaluation == nil && after.Evaluation != nil {
			m := after.Clone()
			annotated = &m
		}
	}

	if len(new.Transcript) > oldLen {
		return new.Transcript[oldLen:].Clone(), annotated
	}
	return nil, annotated
}

// IsEmpty checks if the diff contains any actionable changes.
func (d *SnapshotDiff) IsEmpty() bool {
	return d.Phase == nil &&
		d.NodeKey == nil &&
		len(d.Appended) == 0 &&
		d.Annotated == nil &&
		d.Progress == nil &&
		d.Report == nil
}
