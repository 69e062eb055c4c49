// Package campaign implements campaign launch orchestration and engagement
// statistics.
//
// The service layer loads campaigns and their target recipients, delegates
// the actual send pipeline to the mailing dispatcher, and owns the stats
// aggregation that turns raw tracking records into campaign-level rates. It
// depends on repository interfaces defined in this package and never imports
// from the HTTP layer.
//
// Repository implementations live in repository/postgres/ and
// repository/memory/.
package campaign
