// Package doctor inspects a machine's configsync installation without
// changing it. Each finding is a Check with an ok, warn or fail status;
// a Report collects them and renders as styled text or YAML.
package doctor
