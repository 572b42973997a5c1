package storage

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/keshon/connect-router/internal/datastore"
	"github.com/keshon/connect-router/internal/policy"
)

// Datastore keeps policy records in the JSON file store, one key per bucket.
type Datastore struct {
	ds *datastore.DataStore
}

func NewDatastore(ds *datastore.DataStore) *Datastore {
	return &Datastore{ds: ds}
}

func (d *Datastore) Get(_ context.Context, bucket uint64) (policy.Record, bool, error) {
	raw, ok, err := d.ds.Get(bucketKey(bucket))
	if err != nil || !ok {
		return policy.Record{}, false, err
	}
	rec, err := decodeRecord(raw)
	if err != nil {
		return policy.Record{}, false, err
	}
	return rec, true, nil
}

func (d *Datastore) InsertIfAbsent(_ context.Context, rec policy.Record) (policy.Record, error) {
	raw, _, err := d.ds.AddIfAbsent(bucketKey(rec.ID), rec)
	if err != nil {
		return policy.Record{}, err
	}
	return decodeRecord(raw)
}

func (d *Datastore) Put(_ context.Context, rec policy.Record) error {
	return d.ds.Add(bucketKey(rec.ID), rec)
}

func (d *Datastore) Close() error {
	return d.ds.Close()
}

func decodeRecord(raw []byte) (policy.Record, error) {
	var rec policy.Record
	if err := json.Unmarshal(raw, &rec); err != nil {
		return policy.Record{}, fmt.Errorf("error unmarshalling policy record: %w", err)
	}
	if rec.IgnoredChannels == nil {
		rec.IgnoredChannels = []uint64{}
	}
	return rec, nil
}
