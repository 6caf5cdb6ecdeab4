/*
Package racf automates the RACF command line of a z/OS host for the
Terraform RACF provider.

# Architecture Overview

  - Session: drives one logged-on TSO terminal through a command cycle
    (wait for continuation, error and completion markers, then reflow)
  - Pool and Client: hand sessions to callers one command at a time
  - Grammars: ordered regular-expression rules that turn LISTUSER and
    LISTGRP output into attributes, one grammar per entity and segment
  - Splitter: cuts a listing into its base section and one slice per
    requested segment
  - Renderer: turns attribute edits into command operands
  - Managers: user, group and connection operations built from the above

# Commands

Mutating commands print nothing on success. Any residual output fails the
operation; output naming a missing profile becomes a NotFound error.
Informational IKJ, ICH and IRR messages are treated as embedded errors.

# Secrets

Passwords are composed into commands inside a SecretBuffer that is wiped
on every exit path. Commands are logged by verb only.

# Example Usage

	client, err := racf.NewClient(ctx, &racf.SessionConfig{
		Host:     "mvs.example.com",
		Username: "IBMUSER",
		Password: password,
	}, nil)
	if err != nil {
		return err
	}
	defer client.Close()

	data, err := racf.NewProviderData(client, nil)
	if err != nil {
		return err
	}
	user, err := data.Users.GetUser(ctx, "JOE", nil)
*/
package racf
