// Package msk adapts Lambda Kafka (MSK) trigger payloads to the
// key/value messages the notification handler consumes.
package msk

import (
	"encoding/base64"
	"fmt"
	"sort"

	"github.com/aws/aws-lambda-go/events"
)

// Record is one decoded Kafka message from a Lambda batch.
type Record struct {
	Topic     string
	Partition int64
	Offset    int64
	Key       []byte
	Value     []byte
}

// ID identifies the record in logs.
func (r Record) ID() string {
	return fmt.Sprintf("%s-%d@%d", r.Topic, r.Partition, r.Offset)
}

// ConvertFromKafkaRecord base64-decodes the key and value of a record.
func ConvertFromKafkaRecord(record events.KafkaRecord) (Record, error) {
	out := Record{Topic: record.Topic, Partition: record.Partition, Offset: record.Offset}

	if record.Key != "" {
		key, err := base64.StdEncoding.DecodeString(record.Key)
		if err != nil {
			return out, fmt.Errorf("failed to decode key: %w", err)
		}
		out.Key = key
	}

	if record.Value == "" {
		return out, fmt.Errorf("record has no value")
	}
	value, err := base64.StdEncoding.DecodeString(record.Value)
	if err != nil {
		return out, fmt.Errorf("failed to decode value: %w", err)
	}
	out.Value = value
	return out, nil
}

// BatchConvertFromKafkaEvent converts all records of a trigger batch, ordered
// by topic, partition and offset so per-order messages keep their order.
// Returns successfully converted records and any errors encountered.
func BatchConvertFromKafkaEvent(event events.KafkaEvent) ([]Record, []error) {
	var records []Record
	var errs []error

	for tp, batch := range event.Records {
		for _, kr := range batch {
			r, err := ConvertFromKafkaRecord(kr)
			if err != nil {
				errs = append(errs, fmt.Errorf("record %s %d@%d: %w", tp, kr.Partition, kr.Offset, err))
				continue
			}
			records = append(records, r)
		}
	}

	sort.Slice(records, func(i, j int) bool {
		a, b := records[i], records[j]
		if a.Topic != b.Topic {
			return a.Topic < b.Topic
		}
		if a.Partition != b.Partition {
			return a.Partition < b.Partition
		}
		return a.Offset < b.Offset
	})
	return records, errs
}
