package racf

// Captured LISTUSER and LISTGRP output after post-processing.
const (
	sampleListUser = `USER=JOE  NAME=JOE SMITH  OWNER=SYS1  CREATED=05.123
 DEFAULT-GROUP=SYS1  PASSDATE=23.045 PASS-INTERVAL= 90 PHRASEDATE=N/A
 ATTRIBUTES=SPECIAL OPERATIONS
 REVOKE DATE=NONE   RESUME DATE=NONE
 LAST-ACCESS=23.050/10:15:30
 CLASS AUTHORIZATIONS=NONE
 INSTALLATION-DATA=PAYROLL TEAM
 NO-MODEL-NAME
 LOGON ALLOWED   (DAYS)          (TIME)
 ---------------------------------------------
 ANYDAY                          ANYTIME
  GROUP=SYS1      AUTH=USE      CONNECT-OWNER=SYS1      CONNECT-DATE=05.123
    CONNECTS=    15  UACC=NONE     LAST-CONNECT=23.050/10:15:30
    CONNECT ATTRIBUTES=NONE
    REVOKE DATE=NONE   RESUME DATE=NONE
  GROUP=TEST      AUTH=USE      CONNECT-OWNER=ADMIN     CONNECT-DATE=20.010
    CONNECTS=    00  UACC=NONE     LAST-CONNECT=UNKNOWN
    CONNECT ATTRIBUTES=NONE
    REVOKE DATE=NONE   RESUME DATE=NONE
SECURITY-LEVEL=NONE SPECIFIED
CATEGORY-AUTHORIZATION
 NONE SPECIFIED
SECURITY-LABEL=NONE SPECIFIED

TSO INFORMATION
---------------
 ACCTNUM= ACCT#
 HOLDCLASS= X
 JOBCLASS= A
 MSGCLASS= X
 PROC= IKJACCNT
 SIZE= 00004096
 MAXSIZE= 00000000
 SYSOUTCLASS= X
 USERDATA= 0000

OMVS INFORMATION
----------------
UID= 0000000100
HOME= /u/joe
PROGRAM= /bin/sh
CPUTIMEMAX= NONE
ASSIZEMAX= NONE`

	sampleListUserRevoked = `USER=OLD  NAME=OLD ACCOUNT  OWNER=SYS1  CREATED=99.001
 DEFAULT-GROUP=SYS1  PASSDATE=00.000 PASS-INTERVAL= 30 PHRASEDATE=N/A
 ATTRIBUTES=REVOKED
 REVOKE DATE=NONE   RESUME DATE=24.100
 LAST-ACCESS=UNKNOWN
 CLASS AUTHORIZATIONS=NONE
 NO-INSTALLATION-DATA
 NO-MODEL-NAME
 LOGON ALLOWED   (DAYS)          (TIME)
 ---------------------------------------------
 ANYDAY                          ANYTIME
  GROUP=SYS1      AUTH=USE      CONNECT-OWNER=SYS1      CONNECT-DATE=99.001
    CONNECTS=    00  UACC=NONE     LAST-CONNECT=UNKNOWN
    CONNECT ATTRIBUTES=NONE
    REVOKE DATE=NONE   RESUME DATE=NONE
SECURITY-LEVEL=NONE SPECIFIED
CATEGORY-AUTHORIZATION
 NONE SPECIFIED
SECURITY-LABEL=NONE SPECIFIED

NO TSO INFORMATION

NO OMVS INFORMATION`

	sampleListGroup = `INFORMATION FOR GROUP SYS1
    SUPERIOR GROUP=NONE      OWNER=IBMUSER   CREATED=99.001
    INSTALLATION DATA=SYSTEM GROUP
    NO MODEL DATA SET
    TERMUACC
    SUBGROUP(S)= TEST     PAYROLL
    USER(S)=      ACCESS=      ACCESS COUNT=      UNIVERSAL ACCESS=
      IBMUSER      JOIN           000000               NONE
         CONNECT ATTRIBUTES=NONE
         REVOKE DATE=NONE                  RESUME DATE=NONE
      JOE          USE            000000               NONE
         CONNECT ATTRIBUTES=NONE
         REVOKE DATE=NONE                  RESUME DATE=NONE

OMVS INFORMATION
----------------
GID= 0000000100`
)
