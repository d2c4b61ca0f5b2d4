// Package accel probes for a usable inference accelerator.
//
// The probe asks the inference runtime what it was built with and which
// devices it can see, cross-checks the PCI devices visible in sysfs, and folds
// everything into a Result. Probing never fails: every problem becomes an
// unavailable Result with one of three distinct causes, and the detail is
// written to a diagnostic writer (stderr in production) rather than to the
// structured event stream.
package accel
