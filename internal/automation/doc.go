// Package automation runs scripted scenarios: YAML files listing a
// sequence of configured runs.
package automation
