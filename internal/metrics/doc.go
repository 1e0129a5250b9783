// Package metrics reduces recorded runs to summary numbers such as
// spike totals, firing rates and synchrony.
package metrics
