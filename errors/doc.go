/*
Package errors implements the error values used across timevault.

Every error returned by a handler or a controller should wrap one of the
root errors registered in this package (or registered by an extension using
Register). The root error carries an ABCI code that lets clients tell apart
a retryable failure from a permanent one.

To create an error instance use errors.Wrap(ErrXyz, "...")
at the point of creation so that a stacktrace is attached. Wrapping multiple
times records the stacktrace only once, at the innermost wrap.

Once you have an error, you can use fmt to print it
	%s is just the error message
	%+v is the full stack trace
	%v appends a compressed [filename:line] where the error was created
*/
package errors
