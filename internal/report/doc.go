// Package report exports mirror rankings to blob storage.
//
// A Report is a JSON snapshot of one search: the source URL, its size,
// and every candidate in ranked order. Reports are stored through
// gocloud.dev/blob, so the destination can be any supported bucket URL:
//
//	mem://                                  (tests)
//	file:///var/lib/axel/reports
//	s3://reports?region=eu-west-1
//	gs://my-bucket
//
// Objects default to mirrors/{id}.json, where id is the report UUID.
package report
