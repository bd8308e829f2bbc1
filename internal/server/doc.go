// Package server is the HTTP gateway: an index of published documentation,
// a form endpoint that triggers builds, and static serving of the results.
//
// Routes:
//
//	GET  /                                 index page with the catalog and a request form
//	POST /gendocs                          build docs for package + version or url
//	GET  /docs/{crate}                     published versions of one crate
//	GET  /docs/{crate}/{version}/*         generated files
//	GET  /health                           liveness and build queue length
//	GET  /metrics                          prometheus exposition
package server
