// Package db persists pond readings and optimal ranges in ScyllaDB.
package db

import (
	"context"
	"fmt"
	"time"

	"github.com/gocql/gocql"
)

const schemaTimeout = 10 * time.Second

var schema = []string{
	`CREATE TABLE IF NOT EXISTS ponds (
	pond_id text PRIMARY KEY,
	pond_name text
)`,
	`CREATE TABLE IF NOT EXISTS readings (
	pond_id text,
	bucket_date date,
	waktu timestamp,
	reading_id text,
	raw_waktu text,
	ph double,
	suhu double,
	salinity double,
	ammonia double,
	ec double,
	PRIMARY KEY ((pond_id, bucket_date), waktu, reading_id)
) WITH CLUSTERING ORDER BY (waktu DESC, reading_id ASC)`,
	`CREATE TABLE IF NOT EXISTS optimal_parameters (
	pond_id text,
	parameter text,
	min_value decimal,
	max_value decimal,
	reason text,
	updated_at timestamp,
	PRIMARY KEY (pond_id, parameter)
)`,
	`CREATE TABLE IF NOT EXISTS alerts (
	bucket_date date,
	alert_id timeuuid,
	pond_id text,
	reading_id text,
	parameter text,
	measured double,
	optimal_min double,
	optimal_max double,
	direction text,
	waktu text,
	resolved boolean,
	resolved_at timestamp,
	PRIMARY KEY (bucket_date, alert_id)
) WITH CLUSTERING ORDER BY (alert_id DESC)`,
}

type DB struct {
	sess *gocql.Session
}

func New(sess *gocql.Session) *DB {
	return &DB{sess: sess}
}

// Connect opens a session on keyspace.
func Connect(nodes []string, keyspace string) (*DB, error) {
	cluster := gocql.NewCluster(nodes...)
	cluster.Keyspace = keyspace
	cluster.Consistency = gocql.LocalQuorum
	cluster.Timeout = 2 * time.Second

	sess, err := cluster.CreateSession()
	if err != nil {
		return nil, fmt.Errorf("unable to connect: %w", err)
	}
	return New(sess), nil
}

// Migrate creates the tables if they do not exist yet.
func (db *DB) Migrate(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, schemaTimeout)
	defer cancel()

	for _, stmt := range schema {
		if err := db.sess.Query(stmt).WithContext(ctx).Exec(); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return nil
}

func (db *DB) Close() {
	if db.sess != nil {
		db.sess.Close()
	}
}
