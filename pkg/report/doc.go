// Package report renders scan results and audit entries for people.
//
// It only consumes scan.Result and audit.Entry values; nothing here feeds
// back into enforcement decisions.
package report
