// Package regions serves country scoped state and province option lists
// over HTTP for select fields that load their choices dynamically.
//
// The handler answers GET requests such as
//
//	GET /api/regions/states?country=US
//
// with a JSON body of the form {"states": ["Alabama", ...]}. Unknown
// countries yield an empty list rather than an error so dependent selects
// can simply clear their options.
package regions
