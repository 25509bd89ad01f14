// Package metrics holds the Prometheus collectors of the api.
package metrics

const KolamNamespace = "kolam"
