/*
Package utils provides the decorators shared by every route of the
application: panic recovery, transaction logging, savepoints and result
tagging.
*/
package utils
