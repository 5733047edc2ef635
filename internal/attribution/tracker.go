package attribution

import (
	"encoding/json"
	"net/url"
	"time"
)

const (
	// DefaultSource and DefaultMedium tag visits that arrive with no campaign
	// parameters.
	DefaultSource = "direct"
	DefaultMedium = "none"
)

// Snapshot is the campaign data captured on one navigation.
type Snapshot struct {
	UTMSource   string `json:"utm_source,omitempty"`
	UTMMedium   string `json:"utm_medium,omitempty"`
	UTMCampaign string `json:"utm_campaign,omitempty"`
	UTMTerm     string `json:"utm_term,omitempty"`
	UTMContent  string `json:"utm_content,omitempty"`
	Referrer    string `json:"referrer,omitempty"`
	LandingPath string `json:"landing_path,omitempty"`
	CapturedAt  string `json:"captured_at"`
}

func (s Snapshot) hasUTM() bool {
	return s.UTMSource != "" || s.UTMMedium != "" || s.UTMCampaign != "" ||
		s.UTMTerm != "" || s.UTMContent != ""
}

// Tracker maintains first-touch and last-touch snapshots per visitor in a
// persistent Store. First-touch is write-once for the life of the storage;
// last-touch is rewritten on every navigation.
type Tracker struct {
	store Store
}

// NewTracker creates a tracker backed by store.
func NewTracker(store Store) *Tracker {
	return &Tracker{store: store}
}

// Track records one navigation for a visitor. pageURL carries the query
// string the visitor landed with; referrer may be empty.
func (t *Tracker) Track(visitorID string, pageURL *url.URL, referrer string, now time.Time) error {
	current := snapshotFromNavigation(pageURL, referrer, now)

	if err := t.trackFirstTouch(visitorID, current); err != nil {
		return err
	}
	return t.trackLastTouch(visitorID, current)
}

// trackFirstTouch stores the snapshot only when no first-touch record exists.
// A campaign-less first visit gets the synthetic direct/none snapshot.
func (t *Tracker) trackFirstTouch(visitorID string, current Snapshot) error {
	key := visitorID + ":first"
	if _, ok, err := t.store.Get(key); err != nil {
		return err
	} else if ok {
		return nil
	}

	first := current
	if !first.hasUTM() {
		first.UTMSource = DefaultSource
		first.UTMMedium = DefaultMedium
	}
	return t.setSnapshot(key, first)
}

// trackLastTouch merges the current navigation into the previous last-touch:
// UTM fields keep their previous value when absent on the new navigation,
// non-UTM fields always take the freshest value.
func (t *Tracker) trackLastTouch(visitorID string, current Snapshot) error {
	key := visitorID + ":last"
	previous, _, err := t.getSnapshot(key)
	if err != nil {
		return err
	}

	merged := Snapshot{
		UTMSource:   coalesce(current.UTMSource, previous.UTMSource, DefaultSource),
		UTMMedium:   coalesce(current.UTMMedium, previous.UTMMedium, DefaultMedium),
		UTMCampaign: coalesce(current.UTMCampaign, previous.UTMCampaign, ""),
		UTMTerm:     coalesce(current.UTMTerm, previous.UTMTerm, ""),
		UTMContent:  coalesce(current.UTMContent, previous.UTMContent, ""),
		Referrer:    current.Referrer,
		LandingPath: current.LandingPath,
		CapturedAt:  current.CapturedAt,
	}
	return t.setSnapshot(key, merged)
}

// FirstTouch returns the visitor's first-touch snapshot, if any.
func (t *Tracker) FirstTouch(visitorID string) (Snapshot, bool, error) {
	return t.getSnapshot(visitorID + ":first")
}

// LastTouch returns the visitor's last-touch snapshot, if any.
func (t *Tracker) LastTouch(visitorID string) (Snapshot, bool, error) {
	return t.getSnapshot(visitorID + ":last")
}

// Attribution flattens both snapshots into utm_* (last-touch) and first_utm_*
// keys for inclusion in analytics events and lead submissions.
func (t *Tracker) Attribution(visitorID string) (map[string]string, error) {
	flat := make(map[string]string)

	last, ok, err := t.LastTouch(visitorID)
	if err != nil {
		return nil, err
	}
	if ok {
		flat["utm_source"] = last.UTMSource
		flat["utm_medium"] = last.UTMMedium
		putNonEmpty(flat, "utm_campaign", last.UTMCampaign)
		putNonEmpty(flat, "utm_term", last.UTMTerm)
		putNonEmpty(flat, "utm_content", last.UTMContent)
		putNonEmpty(flat, "referrer", last.Referrer)
		putNonEmpty(flat, "landing_path", last.LandingPath)
	}

	first, ok, err := t.FirstTouch(visitorID)
	if err != nil {
		return nil, err
	}
	if ok {
		flat["first_utm_source"] = first.UTMSource
		flat["first_utm_medium"] = first.UTMMedium
		putNonEmpty(flat, "first_utm_campaign", first.UTMCampaign)
		putNonEmpty(flat, "first_utm_term", first.UTMTerm)
		putNonEmpty(flat, "first_utm_content", first.UTMContent)
		putNonEmpty(flat, "first_landing_path", first.LandingPath)
	}

	return flat, nil
}

func (t *Tracker) getSnapshot(key string) (Snapshot, bool, error) {
	raw, ok, err := t.store.Get(key)
	if err != nil || !ok {
		return Snapshot{}, false, err
	}
	var snap Snapshot
	if err := json.Unmarshal([]byte(raw), &snap); err != nil {
		// A corrupt record is treated as absent rather than poisoning every
		// future navigation.
		return Snapshot{}, false, nil
	}
	return snap, true, nil
}

func (t *Tracker) setSnapshot(key string, snap Snapshot) error {
	raw, err := json.Marshal(snap)
	if err != nil {
		return err
	}
	return t.store.Set(key, string(raw))
}

// snapshotFromNavigation builds the current snapshot from the URL query
// string, the referrer, and the current path+query.
func snapshotFromNavigation(pageURL *url.URL, referrer string, now time.Time) Snapshot {
	query := pageURL.Query()
	landing := pageURL.Path
	if pageURL.RawQuery != "" {
		landing += "?" + pageURL.RawQuery
	}
	return Snapshot{
		UTMSource:   query.Get("utm_source"),
		UTMMedium:   query.Get("utm_medium"),
		UTMCampaign: query.Get("utm_campaign"),
		UTMTerm:     query.Get("utm_term"),
		UTMContent:  query.Get("utm_content"),
		Referrer:    referrer,
		LandingPath: landing,
		CapturedAt:  now.UTC().Format(time.RFC3339),
	}
}

func coalesce(current, previous, fallback string) string {
	if current != "" {
		return current
	}
	if previous != "" {
		return previous
	}
	return fallback
}

func putNonEmpty(m map[string]string, key, value string) {
	if value != "" {
		m[key] = value
	}
}
