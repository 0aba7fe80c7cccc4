// Copyright 2023 uhppoted@twyst.co.za. All rights reserved.
// Use of this source code is governed by an MIT-style license
// that can be found in the LICENSE file.

/*
Package sheets-csv exports the worksheets of a Google Sheets spreadsheet as CSV files to a local directory.

sheets-csv runs an Apps Script export function against the spreadsheet, downloads the zip archive of CSV files
that the script leaves in Google Drive, deletes the intermediate Drive folder and replaces the contents of the
target directory with the archive contents. It can be used from the command line but is really intended to be
run from a build step or cron job to keep a set of CSV assets (e.g. localisation tables) in sync with a shared
spreadsheet.

sheets-csv supports the following commands:

  - authorise, to authorise access to Google Drive and Google Sheets and cache the OAuth2 tokens
  - export, to export a spreadsheet as CSV files to a local directory
  - cleanup, to delete the intermediate Drive folders left behind by failed exports
  - version, to display the current version
*/
package sheets
