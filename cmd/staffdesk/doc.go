// Package main provides the entry point for staffdesk.
//
// staffdesk is the command-line client of the employee management
// backend. It runs single commands or, with "staffdesk shell", an
// interactive session.
package main
