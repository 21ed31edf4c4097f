/*
Package observability provides tools for monitoring the Switchyard registry.

It exposes prometheus collectors fed by the registry's lifecycle hooks:
transition counts per machine and result, listener panics, and the number
of currently registered machines.
*/
package observability
