/*
Package history records every generation that passed validation.

A Record row is written after each /generate call, successful or not, and
GET /history lists the most recent rows. The ledger is optional and never
feeds back into a request: write failures are logged by the pipeline and
the response is unchanged.
*/
package history
