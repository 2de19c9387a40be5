// Package domain contains the core model of the cursior suite: configuration,
// locators, the entities observed in the shop under test, and run reports.
//
// The domain does not depend on browsers, godog, SQL drivers or the filesystem.
// Infra adapters map into and from these types.
package domain
