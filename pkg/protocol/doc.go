// Package protocol defines the JSON messages exchanged over a session's
// WebSocket connection.
//
// Every message is a JSON object with a "type" field. The client sends:
//
//	{"type":"init","page":"demo"}
//	{"type":"drag","id":"price","value":"20;80"}
//	{"type":"animate","id":"price","on":true}
//	{"type":"ping"}
//
// The server answers with:
//
//	{"type":"render","html":"<div>...</div>"}
//	{"type":"values","values":{"price":[20,80]}}
//	{"type":"state","states":{"price":{"label":"Price","value":[20,80],...}}}
//	{"type":"error","code":2,"message":"unknown input \"x\""}
//	{"type":"pong"}
//
// Messages are encoded with json-iterator in standard-library compatible
// mode.
package protocol
