// Command adbudgetctl manages stored ad platform credentials and runs budget
// workflows against the same database as the adbudget server.
package main

func main() {
	Execute()
}
